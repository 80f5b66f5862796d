package activity

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/temporal"

	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/reliability"
	"github.com/solvik/mediavault/internal/storage"
)

// Asset contains activities for the asset processing pipeline.
type Asset struct {
	assets   *core.AssetService
	store    storage.ObjectStore
	profiles *storage.ProfileSet
	logger   zerolog.Logger
}

// NewAsset creates a new Asset activity struct.
func NewAsset(assets *core.AssetService, store storage.ObjectStore, profiles *storage.ProfileSet, logger zerolog.Logger) *Asset {
	return &Asset{assets: assets, store: store, profiles: profiles, logger: logger}
}

// ProbeResult holds the outcome of probing an uploaded object.
type ProbeResult struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"`
	Skipped bool   `json:"skipped"` // true for non-image assets
}

// ProbeAsset verifies the uploaded object exists and records its pixel
// dimensions. Non-image assets skip the decode and complete analysis
// immediately. A missing object or an undecodable image will not get better
// on retry.
func (a *Asset) ProbeAsset(ctx context.Context, assetID string) (*ProbeResult, error) {
	asset, err := a.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	_, exists, err := a.store.Head(ctx, asset.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", asset.StorageKey, err)
	}
	if !exists {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("object %s not found", asset.StorageKey),
			"OBJECT_MISSING", nil)
	}

	if !strings.HasPrefix(asset.MimeType, "image/") {
		if err := a.assets.SetAnalysisStatus(ctx, assetID, model.AnalysisComplete); err != nil {
			return nil, err
		}
		a.logger.Debug().
			Str("asset_id", assetID).
			Str("mime_type", asset.MimeType).
			Msg("probe skipped for non-image asset")
		return &ProbeResult{Skipped: true}, nil
	}

	body, err := a.store.Get(ctx, asset.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", asset.StorageKey, err)
	}
	defer body.Close()

	cfg, format, err := image.DecodeConfig(body)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("decode %s: %v", asset.OriginalFilename, err),
			"DECODE_ERROR", err)
	}

	if err := a.assets.RecordProbe(ctx, assetID, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("asset_id", assetID).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Str("format", format).
		Msg("asset probed")
	return &ProbeResult{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// GenerateRenditionsParams holds parameters for the GenerateRenditions activity.
type GenerateRenditionsParams struct {
	AssetID        string `json:"asset_id"`
	ThumbnailsOnly bool   `json:"thumbnails_only"`
}

// GenerateRenditionsResult holds the profiles that were generated.
type GenerateRenditionsResult struct {
	Profiles []string `json:"profiles"`
}

// GenerateRenditions derives scaled copies of an asset for every configured
// rendition profile and records them. Requires a prior successful probe.
func (a *Asset) GenerateRenditions(ctx context.Context, params GenerateRenditionsParams) (*GenerateRenditionsResult, error) {
	asset, err := a.assets.GetByID(ctx, params.AssetID)
	if err != nil {
		return nil, err
	}
	if !asset.HasDimensions() {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("asset %s has no probed dimensions", asset.ID),
			"NOT_PROBED", nil)
	}

	profiles := a.profiles.Profiles
	if params.ThumbnailsOnly {
		profiles = a.profiles.Thumbnails()
	}

	size, _, err := a.store.Head(ctx, asset.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("head %s: %w", asset.StorageKey, err)
	}

	applied := make([]string, 0, len(profiles))
	for _, p := range profiles {
		w, h := p.Fit(*asset.Width, *asset.Height)
		key := storage.RenditionKey(asset.TenantID, asset.ID, p.Name, asset.OriginalFilename)
		if err := a.store.Copy(ctx, asset.StorageKey, key); err != nil {
			return nil, fmt.Errorf("write rendition %s: %w", p.Name, err)
		}
		rendition := &model.Rendition{
			AssetID:    asset.ID,
			Profile:    p.Name,
			StorageKey: key,
			Width:      w,
			Height:     h,
			SizeBytes:  size,
		}
		if err := a.assets.UpsertRendition(ctx, rendition); err != nil {
			return nil, err
		}
		applied = append(applied, p.Name)
	}

	a.logger.Info().
		Str("asset_id", asset.ID).
		Strs("profiles", applied).
		Bool("thumbnails_only", params.ThumbnailsOnly).
		Msg("renditions generated")
	return &GenerateRenditionsResult{Profiles: applied}, nil
}

// PromoteAsset copies the original object to the public delivery prefix.
func (a *Asset) PromoteAsset(ctx context.Context, assetID string) error {
	asset, err := a.assets.GetByID(ctx, assetID)
	if err != nil {
		return err
	}

	dst := storage.PublicKey(asset.TenantID, asset.ID, asset.OriginalFilename)
	if err := a.store.Copy(ctx, asset.StorageKey, dst); err != nil {
		return fmt.Errorf("promote asset %s: %w", assetID, err)
	}

	a.logger.Info().
		Str("asset_id", assetID).
		Str("public_key", dst).
		Msg("asset promoted")
	return nil
}

// SetAssetStatusParams holds parameters for the SetAssetStatus activity.
type SetAssetStatusParams struct {
	AssetID string `json:"asset_id"`
	Status  string `json:"status"`
}

// SetAssetStatus updates the processing status of an asset.
func (a *Asset) SetAssetStatus(ctx context.Context, params SetAssetStatusParams) error {
	return a.assets.SetStatus(ctx, params.AssetID, params.Status)
}

// MarkThumbnailTimedOut flags an asset whose rendition step ran out of time.
// The flag feeds severity classification and is cleared on reconciliation.
func (a *Asset) MarkThumbnailTimedOut(ctx context.Context, assetID string) error {
	return a.assets.MarkThumbnailTimedOut(ctx, assetID)
}

// ReconcileResult holds the outcome of reconciling an asset.
type ReconcileResult struct {
	Status  string               `json:"status"`
	Changes []reliability.Change `json:"changes,omitempty"`
}

// ReconcileAsset derives analysis and processing status from what the
// pipeline has recorded so far. A missing asset reconciles to nothing.
func (a *Asset) ReconcileAsset(ctx context.Context, assetID string) (*ReconcileResult, error) {
	asset, err := a.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return &ReconcileResult{}, nil
	}

	changes, err := a.assets.Reconcile(ctx, asset)
	if err != nil {
		return nil, err
	}
	return &ReconcileResult{Status: asset.Status, Changes: changes}, nil
}

// FindStuckAssetsParams holds parameters for the FindStuckAssets activity.
type FindStuckAssetsParams struct {
	MaxAge time.Duration `json:"max_age"`
	Limit  int           `json:"limit"`
}

// FindStuckAssets returns assets sitting in processing for longer than MaxAge.
func (a *Asset) FindStuckAssets(ctx context.Context, params FindStuckAssetsParams) ([]model.Asset, error) {
	if params.MaxAge <= 0 {
		params.MaxAge = 30 * time.Minute
	}
	if params.Limit <= 0 {
		params.Limit = 100
	}
	return a.assets.FindStuck(ctx, time.Now().Add(-params.MaxAge), params.Limit)
}
