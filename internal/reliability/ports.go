package reliability

import (
	"context"
	"time"

	"github.com/solvik/mediavault/internal/model"
)

// IncidentStore persists and queries incidents on behalf of the engine.
type IncidentStore interface {
	RetryGate

	// Record persists a new incident, assigning its id and timestamps.
	Record(ctx context.Context, inc *model.Incident) error

	// RecordIfNotExists persists the incident unless an open one already
	// carries the same unique signature; on a dedup hit the existing row is
	// loaded into inc. Returns whether a new row was created.
	RecordIfNotExists(ctx context.Context, inc *model.Incident) (bool, error)

	// FindByID returns the incident; it errors when the id is unknown.
	FindByID(ctx context.Context, id string) (*model.Incident, error)

	UpdateSeverity(ctx context.Context, id string, severity model.Severity) error

	// MarkResolved closes the incident, stamping auto_recovered metadata
	// when the resolution came from a repair strategy.
	MarkResolved(ctx context.Context, id string, resolvedAt time.Time, autoResolved bool) error

	// ResolveBySource closes every open incident for a subject, returning
	// the affected count.
	ResolveBySource(ctx context.Context, sourceType, sourceID string) (int, error)

	// IncrementRepairAttempts bumps the failed-repair counter, honoring the
	// legacy recovery_attempt_count key when reading the current value.
	IncrementRepairAttempts(ctx context.Context, id string) error
}

// RetryGate claims retry dispatches atomically so two sweeps racing on the
// same incident cannot both enqueue a job.
type RetryGate interface {
	// ClaimRetry wins the one-shot gate: it stamps retried/retried_at iff
	// the incident is open and not yet retried.
	ClaimRetry(ctx context.Context, incidentID string, at time.Time) (bool, error)

	// ClaimRetrySlot wins one slot of the capped gate: it increments
	// retry_count iff below max, returning the new count.
	ClaimRetrySlot(ctx context.Context, incidentID string, max int, at time.Time) (int, bool, error)
}

// SeverityStore is the slice of the incident store the escalation policy
// needs to persist a critical bump.
type SeverityStore interface {
	UpdateSeverity(ctx context.Context, id string, severity model.Severity) error
}

// AssetRepository looks up repair subjects. FindByID returns nil, nil when
// the asset does not exist.
type AssetRepository interface {
	FindByID(ctx context.Context, id string) (*model.Asset, error)
}

// Reconciler drives an asset's derived status fields toward consistency and
// reports what changed.
type Reconciler interface {
	Reconcile(ctx context.Context, asset *model.Asset) ([]Change, error)
}

// JobDispatcher enqueues repair work fire-and-forget; the engine never waits
// for completion, confirmation happens on a later recovery pass.
type JobDispatcher interface {
	DispatchAssetProcessing(ctx context.Context, assetID string) error
	DispatchThumbnailRegeneration(ctx context.Context, assetID string) error
	DispatchPromotionRetry(ctx context.Context, assetID string) error
}

// TicketCreator opens a human-facing support ticket for an incident the
// repair chain could not clear.
type TicketCreator interface {
	CreateFromIncident(ctx context.Context, inc *model.Incident) (*model.Ticket, error)
}
