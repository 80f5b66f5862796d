package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/solvik/mediavault/internal/activity"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/reliability"
)

// renditionCtx returns a workflow context with the longer timeout budget the
// rendition step gets. A blown budget here is what flags thumbnail timeouts.
func renditionCtx(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    2,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	})
}

// ProcessAssetWorkflow runs the ingest pipeline for one uploaded asset:
// probe, renditions, promotion to the public prefix, reconciliation. Success
// closes any open incidents recorded against the asset; a failed step
// reports an incident for the repair sweep and fails the workflow.
func ProcessAssetWorkflow(ctx workflow.Context, assetID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	err := workflow.ExecuteActivity(ctx, "SetAssetStatus", activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessing,
	}).Get(ctx, nil)
	if err != nil {
		return err
	}

	var probe activity.ProbeResult
	err = workflow.ExecuteActivity(ctx, "ProbeAsset", assetID).Get(ctx, &probe)
	if err != nil {
		_ = failAsset(ctx, assetID, model.AssetFailed)
		reportIncident(ctx, activity.CreateIncidentParams{
			SourceType: model.SourceAsset,
			SourceID:   assetID,
			Context:    reliability.ContextVisualMetadataMissing,
			Title:      reliability.TitleVisualMetadataMissing,
			Message:    err.Error(),
			Retryable:  retryableFrom(err),
		})
		return err
	}

	if !probe.Skipped {
		err = workflow.ExecuteActivity(renditionCtx(ctx), "GenerateRenditions", activity.GenerateRenditionsParams{
			AssetID: assetID,
		}).Get(ctx, nil)
		if err != nil {
			if temporal.IsTimeoutError(err) {
				_ = workflow.ExecuteActivity(ctx, "MarkThumbnailTimedOut", assetID).Get(ctx, nil)
			}
			_ = failAsset(ctx, assetID, model.AssetFailed)
			reportIncident(ctx, activity.CreateIncidentParams{
				SourceType: model.SourceAsset,
				SourceID:   assetID,
				Title:      "Thumbnail generation failed",
				Message:    err.Error(),
				Severity:   string(model.SeverityWarning),
				Retryable:  retryableFrom(err),
			})
			return err
		}
	}

	err = workflow.ExecuteActivity(ctx, "PromoteAsset", assetID).Get(ctx, nil)
	if err != nil {
		_ = failAsset(ctx, assetID, model.AssetPromotionFailed)
		reportIncident(ctx, activity.CreateIncidentParams{
			SourceType: model.SourceAsset,
			SourceID:   assetID,
			Title:      "Asset promotion failed",
			Message:    err.Error(),
			Severity:   string(model.SeverityError),
			Retryable:  retryableFrom(err),
		})
		return err
	}

	if probe.Skipped {
		err = workflow.ExecuteActivity(ctx, "SetAssetStatus", activity.SetAssetStatusParams{
			AssetID: assetID,
			Status:  model.AssetProcessed,
		}).Get(ctx, nil)
	} else {
		err = workflow.ExecuteActivity(ctx, "ReconcileAsset", assetID).Get(ctx, nil)
	}
	if err != nil {
		return err
	}

	var resolved int
	err = workflow.ExecuteActivity(ctx, "ResolveIncidentsBySource", activity.ResolveBySourceParams{
		SourceType: model.SourceAsset,
		SourceID:   assetID,
	}).Get(ctx, &resolved)
	if err != nil {
		workflow.GetLogger(ctx).Warn("failed to resolve incidents after processing",
			"asset_id", assetID, "error", err)
	} else if resolved > 0 {
		workflow.GetLogger(ctx).Info("resolved incidents after processing",
			"asset_id", assetID, "count", resolved)
	}

	return nil
}

// RegenerateThumbnailsWorkflow re-runs only the thumbnail profiles for an
// asset, then reconciles it. The thumbnail repair strategy dispatches this;
// resolution of the originating incident stays with the recovery sweep.
func RegenerateThumbnailsWorkflow(ctx workflow.Context, assetID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    2,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	err := workflow.ExecuteActivity(renditionCtx(ctx), "GenerateRenditions", activity.GenerateRenditionsParams{
		AssetID:        assetID,
		ThumbnailsOnly: true,
	}).Get(ctx, nil)
	if err != nil {
		if temporal.IsTimeoutError(err) {
			_ = workflow.ExecuteActivity(ctx, "MarkThumbnailTimedOut", assetID).Get(ctx, nil)
		}
		return err
	}

	return workflow.ExecuteActivity(ctx, "ReconcileAsset", assetID).Get(ctx, nil)
}

// RetryPromotionWorkflow retries the public-prefix copy for an asset stuck
// in promotion_failed. The job repair strategy dispatches this.
func RetryPromotionWorkflow(ctx workflow.Context, assetID string) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	err := workflow.ExecuteActivity(ctx, "PromoteAsset", assetID).Get(ctx, nil)
	if err != nil {
		return err
	}

	return workflow.ExecuteActivity(ctx, "SetAssetStatus", activity.SetAssetStatusParams{
		AssetID: assetID,
		Status:  model.AssetProcessed,
	}).Get(ctx, nil)
}
