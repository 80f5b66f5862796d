package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/solvik/mediavault/internal/activity"
	"github.com/solvik/mediavault/internal/model"
)

// EscalationSweepParams holds parameters for IncidentEscalationWorkflow.
type EscalationSweepParams struct {
	Limit           int    `json:"limit"`
	WebhookURL      string `json:"webhook_url,omitempty"`
	WebhookTemplate string `json:"webhook_template,omitempty"`
}

// IncidentEscalationWorkflow runs on a cron schedule and walks every open
// unticketed incident through age-based escalation and ticket gating. Each
// ticket the policy opens is announced on the configured webhook.
func IncidentEscalationWorkflow(ctx workflow.Context, params EscalationSweepParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var incidents []model.Incident
	err := workflow.ExecuteActivity(ctx, "FindEscalatableIncidents", activity.FindIncidentsParams{
		Limit: params.Limit,
	}).Get(ctx, &incidents)
	if err != nil {
		return fmt.Errorf("find escalatable incidents: %w", err)
	}

	ticketed := 0
	for _, inc := range incidents {
		var result activity.EscalateIncidentResult
		err := workflow.ExecuteActivity(ctx, "EscalateIncident", inc.ID).Get(ctx, &result)
		if err != nil {
			workflow.GetLogger(ctx).Warn("escalation failed",
				"incident_id", inc.ID, "title", inc.Title, "error", err)
			continue
		}
		if !result.Escalated || result.Ticket == nil {
			continue
		}

		ticketed++
		inc := inc
		notifyTicketWebhook(ctx, params.WebhookURL, params.WebhookTemplate, *result.Ticket, &inc)
	}

	if ticketed > 0 {
		workflow.GetLogger(ctx).Info("escalation sweep finished",
			"swept", len(incidents), "ticketed", ticketed)
	}
	return nil
}
