package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/solvik/mediavault/internal/events"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/platform"
)

// StuckSignaturePrefix namespaces the dedup signatures the stale-asset
// monitor stamps on its incidents, so they can be swept as a group.
const StuckSignaturePrefix = "stuck-asset:"

// IncidentService persists incidents and implements the store side of the
// reliability engine: dedup-aware creation, resolution, and the atomic
// retry claims the repair strategies gate on.
type IncidentService struct {
	db  DB
	bus *events.Bus
}

func NewIncidentService(db DB, bus *events.Bus) *IncidentService {
	return &IncidentService{db: db, bus: bus}
}

// Record inserts a new incident, assigning its id and timestamps.
func (s *IncidentService) Record(ctx context.Context, inc *model.Incident) error {
	inc.ID = platform.NewID("inc")
	now := time.Now()
	if inc.DetectedAt.IsZero() {
		inc.DetectedAt = now
	}
	inc.CreatedAt = now
	inc.UpdatedAt = now
	if inc.Metadata == nil {
		inc.Metadata = model.Metadata{}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO incidents (id, tenant_id, severity, source_type, source_id, title, message,
		                        retryable, requires_support, auto_resolved, metadata, unique_signature,
		                        detected_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		inc.ID, inc.TenantID, inc.Severity, inc.SourceType, inc.SourceID, inc.Title, inc.Message,
		inc.Retryable, inc.RequiresSupport, inc.AutoResolved, inc.Metadata, inc.UniqueSignature,
		inc.DetectedAt, inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record incident: %w", err)
	}

	s.publish(events.IncidentReported, inc)
	return nil
}

// RecordIfNotExists inserts the incident unless an open one already carries
// the same unique signature; on a dedup hit the existing row is loaded into
// inc. A partial unique index on open signatures closes the race between
// two concurrent reporters.
func (s *IncidentService) RecordIfNotExists(ctx context.Context, inc *model.Incident) (bool, error) {
	if inc.UniqueSignature == nil || *inc.UniqueSignature == "" {
		return true, s.Record(ctx, inc)
	}

	existing, err := s.findOpenBySignature(ctx, *inc.UniqueSignature)
	if err != nil {
		return false, err
	}
	if existing != nil {
		*inc = *existing
		return false, nil
	}

	inc.ID = platform.NewID("inc")
	now := time.Now()
	if inc.DetectedAt.IsZero() {
		inc.DetectedAt = now
	}
	inc.CreatedAt = now
	inc.UpdatedAt = now
	if inc.Metadata == nil {
		inc.Metadata = model.Metadata{}
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO incidents (id, tenant_id, severity, source_type, source_id, title, message,
		                        retryable, requires_support, auto_resolved, metadata, unique_signature,
		                        detected_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (unique_signature) WHERE resolved_at IS NULL DO NOTHING`,
		inc.ID, inc.TenantID, inc.Severity, inc.SourceType, inc.SourceID, inc.Title, inc.Message,
		inc.Retryable, inc.RequiresSupport, inc.AutoResolved, inc.Metadata, inc.UniqueSignature,
		inc.DetectedAt, inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("record incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Lost the insert race; take the winner's row.
		existing, err := s.findOpenBySignature(ctx, *inc.UniqueSignature)
		if err != nil {
			return false, err
		}
		if existing != nil {
			*inc = *existing
			return false, nil
		}
		// The winner resolved already; record a fresh incident.
		return true, s.Record(ctx, inc)
	}

	s.publish(events.IncidentReported, inc)
	return true, nil
}

func (s *IncidentService) findOpenBySignature(ctx context.Context, signature string) (*model.Incident, error) {
	var inc model.Incident
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, severity, source_type, source_id, title, message,
		        retryable, requires_support, auto_resolved, metadata, unique_signature,
		        detected_at, resolved_at, created_at, updated_at
		 FROM incidents WHERE unique_signature = $1 AND resolved_at IS NULL`,
		signature,
	).Scan(&inc.ID, &inc.TenantID, &inc.Severity, &inc.SourceType, &inc.SourceID,
		&inc.Title, &inc.Message, &inc.Retryable, &inc.RequiresSupport, &inc.AutoResolved,
		&inc.Metadata, &inc.UniqueSignature, &inc.DetectedAt, &inc.ResolvedAt,
		&inc.CreatedAt, &inc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find incident by signature: %w", err)
	}
	return &inc, nil
}

// FindByID returns an incident by id.
func (s *IncidentService) FindByID(ctx context.Context, id string) (*model.Incident, error) {
	var inc model.Incident
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, severity, source_type, source_id, title, message,
		        retryable, requires_support, auto_resolved, metadata, unique_signature,
		        detected_at, resolved_at, created_at, updated_at
		 FROM incidents WHERE id = $1`, id,
	).Scan(&inc.ID, &inc.TenantID, &inc.Severity, &inc.SourceType, &inc.SourceID,
		&inc.Title, &inc.Message, &inc.Retryable, &inc.RequiresSupport, &inc.AutoResolved,
		&inc.Metadata, &inc.UniqueSignature, &inc.DetectedAt, &inc.ResolvedAt,
		&inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return &inc, nil
}

// IncidentFilters holds optional filters for listing incidents.
type IncidentFilters struct {
	TenantID   string
	Severity   string
	SourceType string
	SourceID   string
	// Status is "open" or "resolved"; empty lists both.
	Status string
}

// List returns incidents with optional filters, newest first, paginated.
func (s *IncidentService) List(ctx context.Context, filters IncidentFilters, limit int, cursor string) ([]model.Incident, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, tenant_id, severity, source_type, source_id, title, message,
	                 retryable, requires_support, auto_resolved, metadata, unique_signature,
	                 detected_at, resolved_at, created_at, updated_at
	          FROM incidents`

	var conditions []string
	var args []any
	argN := 1

	if filters.TenantID != "" {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argN))
		args = append(args, filters.TenantID)
		argN++
	}
	if filters.Severity != "" {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argN))
		args = append(args, filters.Severity)
		argN++
	}
	if filters.SourceType != "" {
		conditions = append(conditions, fmt.Sprintf("source_type = $%d", argN))
		args = append(args, filters.SourceType)
		argN++
	}
	if filters.SourceID != "" {
		conditions = append(conditions, fmt.Sprintf("source_id = $%d", argN))
		args = append(args, filters.SourceID)
		argN++
	}
	switch filters.Status {
	case "open":
		conditions = append(conditions, "resolved_at IS NULL")
	case "resolved":
		conditions = append(conditions, "resolved_at IS NOT NULL")
	}
	if cursor != "" {
		conditions = append(conditions, fmt.Sprintf("created_at < (SELECT created_at FROM incidents WHERE id = $%d)", argN))
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
		return nil, false, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		var inc model.Incident
		if err := rows.Scan(&inc.ID, &inc.TenantID, &inc.Severity, &inc.SourceType, &inc.SourceID,
			&inc.Title, &inc.Message, &inc.Retryable, &inc.RequiresSupport, &inc.AutoResolved,
			&inc.Metadata, &inc.UniqueSignature, &inc.DetectedAt, &inc.ResolvedAt,
			&inc.CreatedAt, &inc.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate incidents: %w", err)
	}

	hasMore := len(incidents) > limit
	if hasMore {
		incidents = incidents[:limit]
	}
	return incidents, hasMore, nil
}

// ListOpenRetryable returns open retryable incidents oldest first, for the
// recovery sweep.
func (s *IncidentService) ListOpenRetryable(ctx context.Context, limit int) ([]model.Incident, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, severity, source_type, source_id, title, message,
		        retryable, requires_support, auto_resolved, metadata, unique_signature,
		        detected_at, resolved_at, created_at, updated_at
		 FROM incidents
		 WHERE resolved_at IS NULL AND retryable
		 ORDER BY detected_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recoverable incidents: %w", err)
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		var inc model.Incident
		if err := rows.Scan(&inc.ID, &inc.TenantID, &inc.Severity, &inc.SourceType, &inc.SourceID,
			&inc.Title, &inc.Message, &inc.Retryable, &inc.RequiresSupport, &inc.AutoResolved,
			&inc.Metadata, &inc.UniqueSignature, &inc.DetectedAt, &inc.ResolvedAt,
			&inc.CreatedAt, &inc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

// ListEscalatable returns open incidents with no ticket yet, oldest first,
// for the escalation sweep. Whether a ticket is warranted stays the
// engine's call.
func (s *IncidentService) ListEscalatable(ctx context.Context, limit int) ([]model.Incident, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT i.id, i.tenant_id, i.severity, i.source_type, i.source_id, i.title, i.message,
		        i.retryable, i.requires_support, i.auto_resolved, i.metadata, i.unique_signature,
		        i.detected_at, i.resolved_at, i.created_at, i.updated_at
		 FROM incidents i
		 WHERE i.resolved_at IS NULL
		   AND NOT EXISTS (SELECT 1 FROM tickets t WHERE t.incident_id = i.id)
		 ORDER BY i.detected_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list escalatable incidents: %w", err)
	}
	defer rows.Close()

	var incidents []model.Incident
	for rows.Next() {
		var inc model.Incident
		if err := rows.Scan(&inc.ID, &inc.TenantID, &inc.Severity, &inc.SourceType, &inc.SourceID,
			&inc.Title, &inc.Message, &inc.Retryable, &inc.RequiresSupport, &inc.AutoResolved,
			&inc.Metadata, &inc.UniqueSignature, &inc.DetectedAt, &inc.ResolvedAt,
			&inc.CreatedAt, &inc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		incidents = append(incidents, inc)
	}
	return incidents, rows.Err()
}

// UpdateSeverity persists an escalated severity.
func (s *IncidentService) UpdateSeverity(ctx context.Context, id string, severity model.Severity) error {
	_, err := s.db.Exec(ctx,
		`UPDATE incidents SET severity = $1, updated_at = $2 WHERE id = $3`,
		severity, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update incident severity: %w", err)
	}
	return nil
}

// MarkResolved closes the incident. The resolved_at guard keeps the first
// resolution timestamp when called redundantly.
func (s *IncidentService) MarkResolved(ctx context.Context, id string, resolvedAt time.Time, autoResolved bool) error {
	query := `UPDATE incidents SET resolved_at = $1, auto_resolved = $2, updated_at = $1
	          WHERE id = $3 AND resolved_at IS NULL`
	if autoResolved {
		query = `UPDATE incidents
		         SET resolved_at = $1, auto_resolved = $2,
		             metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), '{auto_recovered}', 'true'),
		             updated_at = $1
		         WHERE id = $3 AND resolved_at IS NULL`
	}

	tag, err := s.db.Exec(ctx, query, resolvedAt, autoResolved, id)
	if err != nil {
		return fmt.Errorf("resolve incident: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.bus.Publish(events.Event{
			Type:    events.IncidentResolved,
			Payload: map[string]any{"incident_id": id, "auto_resolved": autoResolved},
		})
	}
	return nil
}

// ResolveBySource closes every open incident for a subject, returning the
// affected count.
func (s *IncidentService) ResolveBySource(ctx context.Context, sourceType, sourceID string) (int, error) {
	now := time.Now()
	rows, err := s.db.Query(ctx,
		`UPDATE incidents
		 SET resolved_at = $1, auto_resolved = true, updated_at = $1
		 WHERE source_type = $2 AND source_id = $3 AND resolved_at IS NULL
		 RETURNING id`,
		now, sourceType, sourceID)
	if err != nil {
		return 0, fmt.Errorf("resolve incidents by source: %w", err)
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var incID string
		if err := rows.Scan(&incID); err != nil {
			return count, fmt.Errorf("scan resolved id: %w", err)
		}
		s.bus.Publish(events.Event{
			Type:    events.IncidentResolved,
			Payload: map[string]any{"incident_id": incID, "auto_resolved": true},
		})
		count++
	}
	return count, rows.Err()
}

// ResolveRecoveredStuck closes stale-asset incidents whose subject left the
// processing state, however that happened. One set-based pass instead of a
// per-incident round trip.
func (s *IncidentService) ResolveRecoveredStuck(ctx context.Context) (int, error) {
	now := time.Now()
	rows, err := s.db.Query(ctx,
		`UPDATE incidents
		 SET resolved_at = $1, auto_resolved = true, updated_at = $1
		 WHERE unique_signature LIKE $2 AND resolved_at IS NULL
		   AND NOT EXISTS (
		     SELECT 1 FROM assets a
		     WHERE a.id = incidents.source_id AND a.status = $3
		   )
		 RETURNING id`,
		now, StuckSignaturePrefix+"%", model.AssetProcessing)
	if err != nil {
		return 0, fmt.Errorf("resolve recovered stuck incidents: %w", err)
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var incID string
		if err := rows.Scan(&incID); err != nil {
			return count, fmt.Errorf("scan resolved id: %w", err)
		}
		s.bus.Publish(events.Event{
			Type:    events.IncidentResolved,
			Payload: map[string]any{"incident_id": incID, "auto_resolved": true},
		})
		count++
	}
	return count, rows.Err()
}

// IncrementRepairAttempts bumps the failed-repair counter, collapsing the
// legacy recovery_attempt_count key into repair_attempts as it goes.
func (s *IncidentService) IncrementRepairAttempts(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE incidents
		 SET metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), '{repair_attempts}',
		         to_jsonb(COALESCE((metadata->>'repair_attempts')::int, (metadata->>'recovery_attempt_count')::int, 0) + 1)),
		     updated_at = $2
		 WHERE id = $1`,
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("increment repair attempts: %w", err)
	}
	return nil
}

// ClaimRetry wins the one-shot retry gate: the row mutates only if the
// incident is still open and never retried, so concurrent sweeps cannot
// both dispatch.
func (s *IncidentService) ClaimRetry(ctx context.Context, incidentID string, at time.Time) (bool, error) {
	var id string
	err := s.db.QueryRow(ctx,
		`UPDATE incidents
		 SET metadata = jsonb_set(jsonb_set(COALESCE(metadata, '{}'::jsonb),
		         '{retried}', 'true'),
		         '{retried_at}', to_jsonb($2::timestamptz)),
		     updated_at = $2
		 WHERE id = $1 AND resolved_at IS NULL
		   AND NOT COALESCE((metadata->>'retried')::boolean, false)
		 RETURNING id`,
		incidentID, at,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim retry: %w", err)
	}
	return true, nil
}

// ClaimRetrySlot wins one slot of the capped retry gate, returning the new
// count. The counter guard makes the ceiling check and increment atomic.
func (s *IncidentService) ClaimRetrySlot(ctx context.Context, incidentID string, max int, at time.Time) (int, bool, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`UPDATE incidents
		 SET metadata = jsonb_set(jsonb_set(jsonb_set(COALESCE(metadata, '{}'::jsonb),
		         '{retry_count}', to_jsonb(COALESCE((metadata->>'retry_count')::int, 0) + 1)),
		         '{retried}', 'true'),
		         '{retried_at}', to_jsonb($3::timestamptz)),
		     updated_at = $3
		 WHERE id = $1 AND resolved_at IS NULL
		   AND COALESCE((metadata->>'retry_count')::int, 0) < $2
		 RETURNING (metadata->>'retry_count')::int`,
		incidentID, max, at,
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("claim retry slot: %w", err)
	}
	return count, true, nil
}

func (s *IncidentService) publish(eventType string, inc *model.Incident) {
	evt := events.Event{Type: eventType, Payload: inc}
	if inc.TenantID != nil {
		evt.TenantID = *inc.TenantID
	}
	s.bus.Publish(evt)
}
