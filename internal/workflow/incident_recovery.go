package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/solvik/mediavault/internal/activity"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/reliability"
)

// RecoverySweepParams holds parameters for IncidentRecoveryWorkflow.
type RecoverySweepParams struct {
	Limit int `json:"limit"`
}

// IncidentRecoveryWorkflow runs on a cron schedule and feeds every open
// retryable incident through the repair strategy chain, one at a time. A
// failed attempt is logged and the sweep moves on; the incident stays open
// for the next pass.
func IncidentRecoveryWorkflow(ctx workflow.Context, params RecoverySweepParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var incidents []model.Incident
	err := workflow.ExecuteActivity(ctx, "FindRecoverableIncidents", activity.FindIncidentsParams{
		Limit: params.Limit,
	}).Get(ctx, &incidents)
	if err != nil {
		return fmt.Errorf("find recoverable incidents: %w", err)
	}

	recovered := 0
	for _, inc := range incidents {
		var result reliability.RepairResult
		err := workflow.ExecuteActivity(ctx, "RecoverIncident", inc.ID).Get(ctx, &result)
		if err != nil {
			workflow.GetLogger(ctx).Warn("recovery attempt failed",
				"incident_id", inc.ID, "title", inc.Title, "error", err)
			continue
		}
		if result.Resolved {
			recovered++
		}
	}

	if len(incidents) > 0 {
		workflow.GetLogger(ctx).Info("recovery sweep finished",
			"attempted", len(incidents), "recovered", recovered)
	}
	return nil
}
