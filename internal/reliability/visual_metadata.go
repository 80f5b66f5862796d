package reliability

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/solvik/mediavault/internal/model"
)

// TitleVisualMetadataMissing is the incident title the visual-metadata
// strategy claims exclusively; the generic job-retry strategy defers to it.
const TitleVisualMetadataMissing = "Expected visual metadata missing"

// VisualMetadataStrategy repairs incidents raised when an asset's automatic
// metadata (dimensions, analysis status) never materialized. It re-derives
// the metadata from the asset's current stored state; it never dispatches
// jobs.
type VisualMetadataStrategy struct {
	assets     AssetRepository
	reconciler Reconciler
	logger     zerolog.Logger
}

func NewVisualMetadataStrategy(assets AssetRepository, reconciler Reconciler, logger zerolog.Logger) *VisualMetadataStrategy {
	return &VisualMetadataStrategy{
		assets:     assets,
		reconciler: reconciler,
		logger:     logger.With().Str("strategy", "visual-metadata").Logger(),
	}
}

func (s *VisualMetadataStrategy) Name() string { return "visual-metadata" }

func (s *VisualMetadataStrategy) Supports(inc *model.Incident) bool {
	return strings.EqualFold(inc.Title, TitleVisualMetadataMissing)
}

func (s *VisualMetadataStrategy) Attempt(ctx context.Context, inc *model.Incident) (RepairResult, error) {
	id := inc.SourceRef()
	if id == "" {
		return RepairResult{}, nil
	}

	asset, err := s.assets.FindByID(ctx, id)
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

	asset, err = s.assets.FindByID(ctx, id)
	if err != nil {
		return RepairResult{}, err
	}
	if asset == nil {
		return RepairResult{Changes: changes}, nil
	}

	if asset.AnalysisDone() {
		s.logger.Info().
			Str("incident_id", inc.ID).
			Str("asset_id", asset.ID).
			Msg("visual metadata recovered via reconciliation")
		return RepairResult{Resolved: true, Changes: changes}, nil
	}

	return RepairResult{Changes: changes}, nil
}
