package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/solvik/mediavault/internal/events"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/platform"
	"github.com/solvik/mediavault/internal/reliability"
)

const taskQueue = "mediavault-tasks"

// AssetService persists assets and renditions, reconciles derived status
// fields, and dispatches the processing and repair workflows.
type AssetService struct {
	db  DB
	tc  temporalclient.Client
	bus *events.Bus
}

func NewAssetService(db DB, tc temporalclient.Client, bus *events.Bus) *AssetService {
	return &AssetService{db: db, tc: tc, bus: bus}
}

// RegisterUpload records an uploaded object and starts the processing
// pipeline. The caller has already put the object under asset.StorageKey.
func (s *AssetService) RegisterUpload(ctx context.Context, asset *model.Asset) error {
	if asset.ID == "" {
		asset.ID = platform.NewID("ast")
	}
	asset.Status = model.AssetUploaded
	asset.AnalysisStatus = model.AnalysisPending
	now := time.Now()
	asset.CreatedAt = now
	asset.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO assets (id, tenant_id, brand_id, title, original_filename, mime_type, size_bytes,
		                     checksum, storage_key, status, analysis_status, thumbnail_timed_out, retry_count,
		                     created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		asset.ID, asset.TenantID, asset.BrandID, asset.Title, asset.OriginalFilename,
		asset.MimeType, asset.SizeBytes, asset.Checksum, asset.StorageKey,
		asset.Status, asset.AnalysisStatus, asset.ThumbnailTimedOut, asset.RetryCount,
		asset.CreatedAt, asset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}

	s.bus.Publish(events.Event{Type: events.AssetRegistered, TenantID: asset.TenantID, Payload: asset})

	if err := s.DispatchAssetProcessing(ctx, asset.ID); err != nil {
		return err
	}
	return nil
}

func (s *AssetService) GetByID(ctx context.Context, id string) (*model.Asset, error) {
	asset, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("get asset %s: %w", id, pgx.ErrNoRows)
	}
	return asset, nil
}

// FindByID returns nil, nil when the asset does not exist; repair strategies
// treat a missing subject as no progress rather than an error.
func (s *AssetService) FindByID(ctx context.Context, id string) (*model.Asset, error) {
	var a model.Asset
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, brand_id, title, original_filename, mime_type, size_bytes,
		        checksum, storage_key, status, analysis_status, width, height,
		        thumbnail_timed_out, retry_count, created_at, updated_at
		 FROM assets WHERE id = $1`, id,
	).Scan(&a.ID, &a.TenantID, &a.BrandID, &a.Title, &a.OriginalFilename, &a.MimeType,
		&a.SizeBytes, &a.Checksum, &a.StorageKey, &a.Status, &a.AnalysisStatus,
		&a.Width, &a.Height, &a.ThumbnailTimedOut, &a.RetryCount, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find asset %s: %w", id, err)
	}
	return &a, nil
}

// AssetFilters holds optional filters for listing assets.
type AssetFilters struct {
	TenantID       string
	BrandID        string
	Status         string
	AnalysisStatus string
	Search         string
}

// List returns assets with optional filters, newest first, paginated.
func (s *AssetService) List(ctx context.Context, filters AssetFilters, limit int, cursor string) ([]model.Asset, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, tenant_id, brand_id, title, original_filename, mime_type, size_bytes,
	                 checksum, storage_key, status, analysis_status, width, height,
	                 thumbnail_timed_out, retry_count, created_at, updated_at
	          FROM assets`

	var conditions []string
	var args []any
	argN := 1

	if filters.TenantID != "" {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argN))
		args = append(args, filters.TenantID)
		argN++
	}
	if filters.BrandID != "" {
		conditions = append(conditions, fmt.Sprintf("brand_id = $%d", argN))
		args = append(args, filters.BrandID)
		argN++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argN))
		args = append(args, filters.Status)
		argN++
	}
	if filters.AnalysisStatus != "" {
		conditions = append(conditions, fmt.Sprintf("analysis_status = $%d", argN))
		args = append(args, filters.AnalysisStatus)
		argN++
	}
	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR original_filename ILIKE $%d)", argN, argN))
		args = append(args, "%"+filters.Search+"%")
		argN++
	}
	if cursor != "" {
		conditions = append(conditions, fmt.Sprintf("created_at < (SELECT created_at FROM assets WHERE id = $%d)", argN))
		args = append(args, cursor)
		argN++
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argN)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.TenantID, &a.BrandID, &a.Title, &a.OriginalFilename, &a.MimeType,
			&a.SizeBytes, &a.Checksum, &a.StorageKey, &a.Status, &a.AnalysisStatus,
			&a.Width, &a.Height, &a.ThumbnailTimedOut, &a.RetryCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate assets: %w", err)
	}

	hasMore := len(assets) > limit
	if hasMore {
		assets = assets[:limit]
	}
	return assets, hasMore, nil
}

func (s *AssetService) Update(ctx context.Context, asset *model.Asset) error {
	_, err := s.db.Exec(ctx,
		`UPDATE assets SET title = $1, brand_id = $2, updated_at = now() WHERE id = $3`,
		asset.Title, asset.BrandID, asset.ID,
	)
	if err != nil {
		return fmt.Errorf("update asset %s: %w", asset.ID, err)
	}
	return nil
}

// Delete removes the asset row; renditions cascade at the database level.
// Object cleanup in storage is the caller's concern.
func (s *AssetService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", id, err)
	}
	return nil
}

// Reconcile drives the asset's derived fields toward what the stored probe
// results and renditions support, returning every transition it applied.
// It only upgrades: a completed analysis is never demoted when renditions
// later disappear, that is the repair chain's territory.
func (s *AssetService) Reconcile(ctx context.Context, asset *model.Asset) ([]reliability.Change, error) {
	var renditionCount int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM renditions WHERE asset_id = $1`, asset.ID,
	).Scan(&renditionCount)
	if err != nil {
		return nil, fmt.Errorf("count renditions: %w", err)
	}

	analysis := asset.AnalysisStatus
	status := asset.Status
	timedOut := asset.ThumbnailTimedOut

	if asset.HasDimensions() && renditionCount > 0 {
		analysis = model.AnalysisComplete
		timedOut = false
		if status == model.AssetUploaded || status == model.AssetProcessing {
			status = model.AssetProcessed
		}
	}

	var changes []reliability.Change
	if analysis != asset.AnalysisStatus {
		changes = append(changes, reliability.Change{Field: "analysis_status", From: asset.AnalysisStatus, To: analysis})
	}
	if status != asset.Status {
		changes = append(changes, reliability.Change{Field: "status", From: asset.Status, To: status})
	}
	if timedOut != asset.ThumbnailTimedOut {
		changes = append(changes, reliability.Change{
			Field: "thumbnail_timed_out",
			From:  strconv.FormatBool(asset.ThumbnailTimedOut),
			To:    strconv.FormatBool(timedOut),
		})
	}
	if len(changes) == 0 {
		return nil, nil
	}

	_, err = s.db.Exec(ctx,
		`UPDATE assets SET analysis_status = $1, status = $2, thumbnail_timed_out = $3, updated_at = now()
		 WHERE id = $4`,
		analysis, status, timedOut, asset.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("reconcile asset %s: %w", asset.ID, err)
	}

	becameProcessed := status == model.AssetProcessed && asset.Status != model.AssetProcessed
	asset.AnalysisStatus = analysis
	asset.Status = status
	asset.ThumbnailTimedOut = timedOut

	if becameProcessed {
		s.bus.Publish(events.Event{
			Type:     events.AssetProcessed,
			TenantID: asset.TenantID,
			Payload:  map[string]any{"asset_id": asset.ID, "status": status},
		})
	}
	return changes, nil
}

// SetStatus updates the processing status, announcing terminal failures on
// the bus.
func (s *AssetService) SetStatus(ctx context.Context, id, status string) error {
	var tenantID string
	err := s.db.QueryRow(ctx,
		`UPDATE assets SET status = $1, updated_at = now() WHERE id = $2 RETURNING tenant_id`,
		status, id,
	).Scan(&tenantID)
	if err != nil {
		return fmt.Errorf("set asset %s status: %w", id, err)
	}

	if status == model.AssetFailed {
		s.bus.Publish(events.Event{
			Type:     events.AssetFailed,
			TenantID: tenantID,
			Payload:  map[string]any{"asset_id": id, "status": status},
		})
	}
	return nil
}

func (s *AssetService) SetAnalysisStatus(ctx context.Context, id, status string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE assets SET analysis_status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("set asset %s analysis status: %w", id, err)
	}
	return nil
}

// RecordProbe persists probed pixel dimensions and moves the analysis to
// analyzing; completion is reconciliation's call once renditions exist.
func (s *AssetService) RecordProbe(ctx context.Context, id string, width, height int) error {
	_, err := s.db.Exec(ctx,
		`UPDATE assets SET width = $1, height = $2, analysis_status = $3, updated_at = now() WHERE id = $4`,
		width, height, model.AnalysisAnalyzing, id,
	)
	if err != nil {
		return fmt.Errorf("record probe for asset %s: %w", id, err)
	}
	return nil
}

func (s *AssetService) MarkThumbnailTimedOut(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE assets SET thumbnail_timed_out = true, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("mark asset %s thumbnail timeout: %w", id, err)
	}
	return nil
}

// IncrementRetryCount bumps the processing retry counter, returning the new
// value.
func (s *AssetService) IncrementRetryCount(ctx context.Context, id string) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`UPDATE assets SET retry_count = retry_count + 1, updated_at = now() WHERE id = $1 RETURNING retry_count`,
		id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment retry count for asset %s: %w", id, err)
	}
	return count, nil
}

// UpsertRendition inserts a rendition row; re-running a profile replaces the
// previous output for that profile.
func (s *AssetService) UpsertRendition(ctx context.Context, r *model.Rendition) error {
	if r.ID == "" {
		r.ID = platform.NewID("rnd")
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO renditions (id, asset_id, profile, storage_key, width, height, size_bytes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (asset_id, profile) DO UPDATE
		 SET storage_key = EXCLUDED.storage_key, width = EXCLUDED.width,
		     height = EXCLUDED.height, size_bytes = EXCLUDED.size_bytes`,
		r.ID, r.AssetID, r.Profile, r.StorageKey, r.Width, r.Height, r.SizeBytes, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert rendition %s/%s: %w", r.AssetID, r.Profile, err)
	}
	return nil
}

func (s *AssetService) ListRenditions(ctx context.Context, assetID string) ([]model.Rendition, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, asset_id, profile, storage_key, width, height, size_bytes, created_at
		 FROM renditions WHERE asset_id = $1 ORDER BY profile`, assetID)
	if err != nil {
		return nil, fmt.Errorf("list renditions for asset %s: %w", assetID, err)
	}
	defer rows.Close()

	var renditions []model.Rendition
	for rows.Next() {
		var r model.Rendition
		if err := rows.Scan(&r.ID, &r.AssetID, &r.Profile, &r.StorageKey,
			&r.Width, &r.Height, &r.SizeBytes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rendition: %w", err)
		}
		renditions = append(renditions, r)
	}
	return renditions, rows.Err()
}

// FindStuck returns assets sitting in processing since before the cutoff,
// oldest first. The stale-asset monitor reports incidents for them.
func (s *AssetService) FindStuck(ctx context.Context, cutoff time.Time, limit int) ([]model.Asset, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, brand_id, title, original_filename, mime_type, size_bytes,
		        checksum, storage_key, status, analysis_status, width, height,
		        thumbnail_timed_out, retry_count, created_at, updated_at
		 FROM assets
		 WHERE status = $1 AND updated_at < $2
		 ORDER BY updated_at ASC LIMIT $3`,
		model.AssetProcessing, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("find stuck assets: %w", err)
	}
	defer rows.Close()

	var assets []model.Asset
	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.TenantID, &a.BrandID, &a.Title, &a.OriginalFilename, &a.MimeType,
			&a.SizeBytes, &a.Checksum, &a.StorageKey, &a.Status, &a.AnalysisStatus,
			&a.Width, &a.Height, &a.ThumbnailTimedOut, &a.RetryCount, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// DispatchAssetProcessing starts the full processing pipeline for an asset.
func (s *AssetService) DispatchAssetProcessing(ctx context.Context, assetID string) error {
	_, err := s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("process-asset-%s", assetID),
		TaskQueue: taskQueue,
	}, "ProcessAssetWorkflow", assetID)
	if err != nil {
		return fmt.Errorf("start ProcessAssetWorkflow: %w", err)
	}
	return nil
}

// DispatchThumbnailRegeneration starts the thumbnail-only repair job.
func (s *AssetService) DispatchThumbnailRegeneration(ctx context.Context, assetID string) error {
	_, err := s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("regen-thumbnails-%s", assetID),
		TaskQueue: taskQueue,
	}, "RegenerateThumbnailsWorkflow", assetID)
	if err != nil {
		return fmt.Errorf("start RegenerateThumbnailsWorkflow: %w", err)
	}
	return nil
}

// DispatchPromotionRetry starts the promotion-retry repair job.
func (s *AssetService) DispatchPromotionRetry(ctx context.Context, assetID string) error {
	_, err := s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("retry-promotion-%s", assetID),
		TaskQueue: taskQueue,
	}, "RetryPromotionWorkflow", assetID)
	if err != nil {
		return fmt.Errorf("start RetryPromotionWorkflow: %w", err)
	}
	return nil
}
