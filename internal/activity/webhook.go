package activity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.temporal.io/sdk/temporal"

	"github.com/solvik/mediavault/internal/model"
)

// Webhook contains activities for sending ticket webhook notifications.
type Webhook struct {
	client *http.Client
}

// NewWebhook creates a new Webhook activity struct.
func NewWebhook() *Webhook {
	return &Webhook{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// NotifyTicketParams holds parameters for the NotifyTicketWebhook activity.
type NotifyTicketParams struct {
	URL      string          `json:"url"`
	Template string          `json:"template"` // "generic" or "slack"
	Ticket   model.Ticket    `json:"ticket"`
	Incident *model.Incident `json:"incident,omitempty"`
}

// NotifyTicketWebhook POSTs a notification for a freshly created support
// ticket. Client errors are permanent; everything else retries.
func (a *Webhook) NotifyTicketWebhook(ctx context.Context, params NotifyTicketParams) error {
	var body []byte
	var err error

	switch params.Template {
	case "slack":
		body, err = buildSlackPayload(params.Ticket, params.Incident)
	default:
		body, err = buildGenericPayload(params.Ticket, params.Incident)
	}
	if err != nil {
		return temporal.NewNonRetryableApplicationError("build webhook payload", "MARSHAL_ERROR", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, params.URL, bytes.NewReader(body))
	if err != nil {
		return temporal.NewNonRetryableApplicationError("create webhook request", "REQUEST_ERROR", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook POST to %s: %w", params.URL, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("webhook returned %d", resp.StatusCode),
			"CLIENT_ERROR", nil)
	}
	return fmt.Errorf("webhook returned %d", resp.StatusCode)
}

// GenericWebhookPayload is the default JSON payload for ticket webhooks.
type GenericWebhookPayload struct {
	Event    string          `json:"event"`
	Ticket   model.Ticket    `json:"ticket"`
	Incident *model.Incident `json:"incident,omitempty"`
}

func buildGenericPayload(ticket model.Ticket, inc *model.Incident) ([]byte, error) {
	return json.Marshal(GenericWebhookPayload{
		Event:    "ticket.created",
		Ticket:   ticket,
		Incident: inc,
	})
}

// buildSlackPayload creates a Slack Block Kit message.
func buildSlackPayload(ticket model.Ticket, inc *model.Incident) ([]byte, error) {
	emoji := ":warning:"
	if ticket.Priority == model.TicketPriorityUrgent {
		emoji = ":rotating_light:"
	}

	title := fmt.Sprintf("%s *%s*", emoji, ticket.Subject)

	fields := []map[string]interface{}{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Ticket:* %s", ticket.ID),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Priority:* %s", ticket.Priority),
		},
	}
	if ticket.TenantID != nil {
		fields = append(fields, map[string]interface{}{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Tenant:* %s", *ticket.TenantID),
		})
	}
	if inc != nil {
		fields = append(fields, map[string]interface{}{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Severity:* %s", inc.Severity),
		})
	}

	blocks := []map[string]interface{}{
		{
			"type": "header",
			"text": map[string]string{
				"type": "plain_text",
				"text": "Support ticket created",
			},
		},
		{
			"type": "section",
			"text": map[string]string{
				"type": "mrkdwn",
				"text": title,
			},
		},
		{
			"type":   "section",
			"fields": fields,
		},
	}

	if ticket.Body != "" {
		blocks = append(blocks, map[string]interface{}{
			"type": "section",
			"text": map[string]string{
				"type": "mrkdwn",
				"text": fmt.Sprintf("```%s```", ticket.Body),
			},
		})
	}

	return json.Marshal(map[string]interface{}{
		"blocks": blocks,
	})
}
