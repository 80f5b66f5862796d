package reliability

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/solvik/mediavault/internal/model"
)

// maxThumbnailRetries caps how many regeneration jobs this strategy will
// dispatch for one incident across recovery passes.
const maxThumbnailRetries = 3

// ThumbnailRetryStrategy repairs thumbnail-generation failures. Unlike the
// generic job-retry strategy it dispatches the thumbnail-specific job,
// because the full processing pipeline short-circuits for assets already
// past analysis and a generic reprocess would silently skip the broken
// thumbnails. It also uses a capped counter instead of the one-shot gate,
// allowing up to three dispatch rounds.
type ThumbnailRetryStrategy struct {
	assets     AssetRepository
	reconciler Reconciler
	dispatcher JobDispatcher
	gate       RetryGate
	logger     zerolog.Logger
	now        func() time.Time
}

func NewThumbnailRetryStrategy(assets AssetRepository, reconciler Reconciler, dispatcher JobDispatcher, gate RetryGate, logger zerolog.Logger) *ThumbnailRetryStrategy {
	return &ThumbnailRetryStrategy{
		assets:     assets,
		reconciler: reconciler,
		dispatcher: dispatcher,
		gate:       gate,
		logger:     logger.With().Str("strategy", "thumbnail-retry").Logger(),
		now:        time.Now,
	}
}

func (s *ThumbnailRetryStrategy) Name() string { return "thumbnail-retry" }

func (s *ThumbnailRetryStrategy) Supports(inc *model.Incident) bool {
	if inc.SourceRef() == "" {
		return false
	}
	if inc.SourceType != model.SourceAsset && inc.SourceType != model.SourceJob {
		return false
	}
	return strings.Contains(strings.ToLower(inc.Title), "thumbnail")
}

func (s *ThumbnailRetryStrategy) Attempt(ctx context.Context, inc *model.Incident) (RepairResult, error) {
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

	if inc.Retryable && inc.Metadata.RetryCount() < maxThumbnailRetries {
		count, claimed, err := s.gate.ClaimRetrySlot(ctx, inc.ID, maxThumbnailRetries, s.now())
		if err != nil {
			return RepairResult{}, err
		}
		if claimed {
			if err := s.dispatcher.DispatchThumbnailRegeneration(ctx, asset.ID); err != nil {
				return RepairResult{}, err
			}
			stampRetry(inc, s.now())
			inc.Metadata[model.MetaRetryCount] = count
			repairJobsDispatched.WithLabelValues(s.Name()).Inc()
			s.logger.Info().
				Str("incident_id", inc.ID).
				Str("asset_id", asset.ID).
				Int("retry_count", count).
				Msg("dispatched thumbnail regeneration")
		}
	}

	return RepairResult{Changes: changes}, nil
}

// stampRetry mirrors a won claim into the in-memory incident so callers see
// the same bookkeeping the store now holds.
func stampRetry(inc *model.Incident, at time.Time) {
	if inc.Metadata == nil {
		inc.Metadata = model.Metadata{}
	}
	inc.Metadata[model.MetaRetried] = true
	inc.Metadata[model.MetaRetriedAt] = at.UTC().Format(time.RFC3339)
}
