package reliability

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/solvik/mediavault/internal/model"
)

// JobRetryStrategy is the generic fallback repair: reconcile the asset, and
// if that alone does not clear the incident, re-dispatch the failed pipeline
// stage once. It defers visual-metadata incidents to the dedicated strategy.
type JobRetryStrategy struct {
	assets     AssetRepository
	reconciler Reconciler
	dispatcher JobDispatcher
	gate       RetryGate
	logger     zerolog.Logger
	now        func() time.Time
}

func NewJobRetryStrategy(assets AssetRepository, reconciler Reconciler, dispatcher JobDispatcher, gate RetryGate, logger zerolog.Logger) *JobRetryStrategy {
	return &JobRetryStrategy{
		assets:     assets,
		reconciler: reconciler,
		dispatcher: dispatcher,
		gate:       gate,
		logger:     logger.With().Str("strategy", "job-retry").Logger(),
		now:        time.Now,
	}
}

func (s *JobRetryStrategy) Name() string { return "job-retry" }

func (s *JobRetryStrategy) Supports(inc *model.Incident) bool {
	if inc.SourceRef() == "" {
		return false
	}
	if inc.SourceType != model.SourceAsset && inc.SourceType != model.SourceJob {
		return false
	}
	return !strings.EqualFold(inc.Title, TitleVisualMetadataMissing)
}

func (s *JobRetryStrategy) Attempt(ctx context.Context, inc *model.Incident) (RepairResult, error) {
	asset, err := s.assets.FindByID(ctx, inc.SourceRef())
	if err != nil {
		return RepairResult{}, err
	}
	if asset == nil {
		return RepairResult{}, nil
	}

	changes, err := s.reconciler.Reconcile(ctx, asset)
	if err != nil {
		return RepairResult{}, err
	}

	asset, err = s.assets.FindByID(ctx, inc.SourceRef())
	if err != nil {
		return RepairResult{}, err
	}
	if asset == nil {
		return RepairResult{Changes: changes}, nil
	}

	if asset.AnalysisDone() {
		return RepairResult{Resolved: true, Changes: changes}, nil
	}

	if inc.Retryable && !inc.Metadata.Retried() {
		claimed, err := s.gate.ClaimRetry(ctx, inc.ID, s.now())
		if err != nil {
			return RepairResult{}, err
		}
		if claimed {
			if asset.Status == model.AssetPromotionFailed {
				err = s.dispatcher.DispatchPromotionRetry(ctx, asset.ID)
			} else {
				err = s.dispatcher.DispatchAssetProcessing(ctx, asset.ID)
			}
			if err != nil {
				return RepairResult{}, err
			}
			stampRetry(inc, s.now())
			repairJobsDispatched.WithLabelValues(s.Name()).Inc()
			s.logger.Info().
				Str("incident_id", inc.ID).
				Str("asset_id", asset.ID).
				Str("asset_status", asset.Status).
				Msg("dispatched recovery job")
		}
	}

	return RepairResult{Changes: changes}, nil
}
