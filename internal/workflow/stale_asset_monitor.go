package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/solvik/mediavault/internal/activity"
	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/reliability"
)

// StaleSweepParams holds parameters for StaleAssetMonitorWorkflow.
type StaleSweepParams struct {
	MaxAge time.Duration `json:"max_age"`
	Limit  int           `json:"limit"`
}

// StaleAssetMonitorWorkflow runs on a cron schedule and reports an incident
// for every asset sitting in processing past the age threshold. Signatures
// dedupe repeat sightings of the same stuck asset, and incidents whose asset
// recovered since the last pass are auto-resolved.
func StaleAssetMonitorWorkflow(ctx workflow.Context, params StaleSweepParams) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var stuck []model.Asset
	err := workflow.ExecuteActivity(ctx, "FindStuckAssets", activity.FindStuckAssetsParams{
		MaxAge: params.MaxAge,
		Limit:  params.Limit,
	}).Get(ctx, &stuck)
	if err != nil {
		return fmt.Errorf("find stuck assets: %w", err)
	}

	for _, asset := range stuck {
		minutes := int(workflow.Now(ctx).Sub(asset.UpdatedAt).Minutes())
		reportIncident(ctx, activity.CreateIncidentParams{
			SourceType:      model.SourceAsset,
			SourceID:        asset.ID,
			TenantID:        asset.TenantID,
			Context:         reliability.ContextIncidentStuck,
			Title:           "Asset stuck in processing",
			Message:         fmt.Sprintf("Asset %s has been processing for %d minutes.", asset.ID, minutes),
			Retryable:       true,
			UniqueSignature: core.StuckSignaturePrefix + asset.ID,
			Metadata:        model.Metadata{reliability.MetaMinutesStuck: minutes},
		})
	}

	var resolved int
	err = workflow.ExecuteActivity(ctx, "ResolveRecoveredStuckIncidents").Get(ctx, &resolved)
	if err != nil {
		workflow.GetLogger(ctx).Warn("failed to resolve recovered stuck incidents", "error", err)
	} else if resolved > 0 {
		workflow.GetLogger(ctx).Info("resolved recovered stuck incidents", "count", resolved)
	}

	return nil
}
