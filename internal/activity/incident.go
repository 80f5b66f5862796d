package activity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/reliability"
)

// Incident contains activities for incident reporting and recovery sweeps.
type Incident struct {
	engine    *reliability.Engine
	incidents *core.IncidentService
	logger    zerolog.Logger
}

// NewIncident creates a new Incident activity struct.
func NewIncident(engine *reliability.Engine, incidents *core.IncidentService, logger zerolog.Logger) *Incident {
	return &Incident{engine: engine, incidents: incidents, logger: logger}
}

// CreateIncidentParams holds parameters for reporting an incident via Temporal activity.
type CreateIncidentParams struct {
	SourceType      string         `json:"source_type"`
	SourceID        string         `json:"source_id,omitempty"`
	TenantID        string         `json:"tenant_id,omitempty"`
	Severity        string         `json:"severity,omitempty"`
	Context         string         `json:"context,omitempty"`
	Title           string         `json:"title"`
	Message         string         `json:"message,omitempty"`
	Retryable       bool           `json:"retryable"`
	RequiresSupport bool           `json:"requires_support"`
	UniqueSignature string         `json:"unique_signature,omitempty"`
	Metadata        model.Metadata `json:"metadata,omitempty"`
}

// CreateIncidentResult holds the result of reporting an incident.
type CreateIncidentResult struct {
	ID       string `json:"id"`
	Severity string `json:"severity"`
}

// CreateIncident reports an incident through the reliability engine. When the
// params carry a unique signature, an already-open incident with the same
// signature is returned instead of a duplicate.
func (a *Incident) CreateIncident(ctx context.Context, params CreateIncidentParams) (*CreateIncidentResult, error) {
	req := reliability.ReportRequest{
		SourceType:      params.SourceType,
		SourceID:        params.SourceID,
		TenantID:        params.TenantID,
		Severity:        model.Severity(params.Severity),
		Context:         params.Context,
		Title:           params.Title,
		Message:         params.Message,
		Retryable:       params.Retryable,
		RequiresSupport: params.RequiresSupport,
		UniqueSignature: params.UniqueSignature,
		Metadata:        params.Metadata,
	}
	if params.SourceType == model.SourceAsset {
		req.AssetID = params.SourceID
	}

	inc, err := a.engine.Report(ctx, req)
	if err != nil {
		return nil, err
	}
	return &CreateIncidentResult{ID: inc.ID, Severity: string(inc.Severity)}, nil
}

// ResolveBySourceParams holds parameters for the ResolveIncidentsBySource activity.
type ResolveBySourceParams struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
}

// ResolveIncidentsBySource closes every open incident recorded against a
// subject and returns how many were closed.
func (a *Incident) ResolveIncidentsBySource(ctx context.Context, params ResolveBySourceParams) (int, error) {
	return a.engine.ResolveBySource(ctx, params.SourceType, params.SourceID)
}

// ResolveRecoveredStuckIncidents closes stale-asset incidents whose asset is
// no longer stuck in processing.
func (a *Incident) ResolveRecoveredStuckIncidents(ctx context.Context) (int, error) {
	return a.incidents.ResolveRecoveredStuck(ctx)
}

// FindIncidentsParams holds parameters for the incident sweep activities.
type FindIncidentsParams struct {
	Limit int `json:"limit"`
}

// FindRecoverableIncidents returns open retryable incidents, oldest first.
func (a *Incident) FindRecoverableIncidents(ctx context.Context, params FindIncidentsParams) ([]model.Incident, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}
	return a.incidents.ListOpenRetryable(ctx, params.Limit)
}

// RecoverIncident runs the repair strategy chain against one incident.
func (a *Incident) RecoverIncident(ctx context.Context, incidentID string) (*reliability.RepairResult, error) {
	inc, err := a.incidents.FindByID(ctx, incidentID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Deleted between the sweep and the recovery attempt.
		a.logger.Warn().Str("incident_id", incidentID).Msg("incident vanished before recovery")
		return &reliability.RepairResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	result, err := a.engine.AttemptRecovery(ctx, inc)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// FindEscalatableIncidents returns open incidents that may need a support
// ticket, oldest first.
func (a *Incident) FindEscalatableIncidents(ctx context.Context, params FindIncidentsParams) ([]model.Incident, error) {
	if params.Limit <= 0 {
		params.Limit = 100
	}
	return a.incidents.ListEscalatable(ctx, params.Limit)
}

// EscalateIncidentResult holds the outcome of escalating one incident.
type EscalateIncidentResult struct {
	Escalated bool          `json:"escalated"`
	Ticket    *model.Ticket `json:"ticket,omitempty"`
}

// EscalateIncident applies age-based escalation to one incident and opens a
// support ticket when the policy calls for it.
func (a *Incident) EscalateIncident(ctx context.Context, incidentID string) (*EscalateIncidentResult, error) {
	inc, err := a.incidents.FindByID(ctx, incidentID)
	if errors.Is(err, pgx.ErrNoRows) {
		a.logger.Warn().Str("incident_id", incidentID).Msg("incident vanished before escalation")
		return &EscalateIncidentResult{}, nil
	}
	if err != nil {
		return nil, err
	}

	ticket, err := a.engine.Escalate(ctx, inc)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return &EscalateIncidentResult{}, nil
	}
	return &EscalateIncidentResult{Escalated: true, Ticket: ticket}, nil
}
