package workflow

import (
	"errors"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/solvik/mediavault/internal/activity"
	"github.com/solvik/mediavault/internal/model"
)

// reportIncident fires a CreateIncident activity. Errors are logged but not
// propagated so incident tracking never fails the pipeline that hit the
// primary error.
func reportIncident(ctx workflow.Context, params activity.CreateIncidentParams) {
	var result activity.CreateIncidentResult
	err := workflow.ExecuteActivity(ctx, "CreateIncident", params).Get(ctx, &result)
	if err != nil {
		workflow.GetLogger(ctx).Warn("failed to report incident",
			"title", params.Title, "error", err)
		return
	}
	workflow.GetLogger(ctx).Info("incident reported",
		"incident_id", result.ID, "severity", result.Severity)
}

// notifyTicketWebhook sends a ticket notification when a webhook URL is
// configured. Errors are logged but not propagated.
func notifyTicketWebhook(ctx workflow.Context, url, template string, ticket model.Ticket, inc *model.Incident) {
	if url == "" {
		return
	}
	err := workflow.ExecuteActivity(ctx, "NotifyTicketWebhook", activity.NotifyTicketParams{
		URL:      url,
		Template: template,
		Ticket:   ticket,
		Incident: inc,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Warn("failed to send ticket webhook",
			"ticket_id", ticket.ID, "error", err)
	}
}

// failAsset records a terminal status for an asset whose pipeline step
// failed. Callers ignore the result since the primary error matters more.
func failAsset(ctx workflow.Context, assetID, status string) error {
	return workflow.ExecuteActivity(ctx, "SetAssetStatus", activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  status,
	}).Get(ctx, nil)
}

// retryableFrom reports whether a failed activity is worth an automated
// repair attempt later. Non-retryable application errors (missing object,
// undecodable image) will not get better on their own.
func retryableFrom(err error) bool {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.NonRetryable() {
		return false
	}
	return true
}
