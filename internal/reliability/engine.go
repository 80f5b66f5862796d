package reliability

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/solvik/mediavault/internal/model"
)

// MetaMinutesStuck is the report-metadata key carrying how long the subject
// has been stuck, read by the classifier for stuck-incident reports.
const MetaMinutesStuck = "minutes_stuck"

// ReportRequest describes a failure to record. Context, Asset and AssetID
// are classification hints consumed by the severity classifier; they are
// never persisted.
type ReportRequest struct {
	SourceType      string
	Title           string
	SourceID        string
	TenantID        string
	Severity        model.Severity
	Message         string
	Metadata        model.Metadata
	Retryable       bool
	RequiresSupport bool
	UniqueSignature string

	Context string
	Asset   *model.Asset
	AssetID string
}

// Engine orchestrates the incident lifecycle: intake, age-based escalation,
// self-healing repair, ticket creation and resolution. It owns no state of
// its own; everything durable lives behind the collaborator ports.
type Engine struct {
	incidents  IncidentStore
	assets     AssetRepository
	tickets    TicketCreator
	policy     *EscalationPolicy
	strategies []RepairStrategy
	logger     zerolog.Logger
	now        func() time.Time
}

// NewEngine wires the engine from its collaborators. Strategies run in the
// order given; the first whose Supports returns true handles the incident
// for a given recovery pass.
func NewEngine(incidents IncidentStore, assets AssetRepository, tickets TicketCreator, policy *EscalationPolicy, strategies []RepairStrategy, logger zerolog.Logger) *Engine {
	return &Engine{
		incidents:  incidents,
		assets:     assets,
		tickets:    tickets,
		policy:     policy,
		strategies: strategies,
		logger:     logger.With().Str("component", "reliability").Logger(),
		now:        time.Now,
	}
}

// Report records a new incident. When no explicit severity is given a
// context hint routes through the classifier, otherwise the severity
// defaults to warning. A unique signature makes the create dedup-aware: an
// open incident carrying the same signature is returned instead of a
// duplicate row.
func (e *Engine) Report(ctx context.Context, req ReportRequest) (*model.Incident, error) {
	severity := req.Severity
	if severity == "" {
		if req.Context != "" {
			derived, err := e.ClassifySeverity(ctx, req)
			if err != nil {
				return nil, err
			}
			severity = derived
		} else {
			severity = model.SeverityWarning
		}
	}

	inc := &model.Incident{
		Severity:        severity,
		SourceType:      req.SourceType,
		Title:           req.Title,
		Message:         req.Message,
		Metadata:        req.Metadata,
		Retryable:       req.Retryable,
		RequiresSupport: req.RequiresSupport,
		DetectedAt:      e.now(),
	}
	if req.SourceID != "" {
		inc.SourceID = &req.SourceID
	}
	if req.TenantID != "" {
		inc.TenantID = &req.TenantID
	}

	created := true
	if req.UniqueSignature != "" {
		inc.UniqueSignature = &req.UniqueSignature
		var err error
		created, err = e.incidents.RecordIfNotExists(ctx, inc)
		if err != nil {
			return nil, fmt.Errorf("record incident: %w", err)
		}
	} else if err := e.incidents.Record(ctx, inc); err != nil {
		return nil, fmt.Errorf("record incident: %w", err)
	}

	if created {
		incidentsReported.WithLabelValues(string(inc.Severity), inc.SourceType).Inc()
		e.logger.Info().
			Str("incident_id", inc.ID).
			Str("severity", string(inc.Severity)).
			Str("source_type", inc.SourceType).
			Str("title", inc.Title).
			Msg("incident reported")
	}

	return inc, nil
}

// ClassifySeverity derives a severity from the request's classification
// hints. The asset comes from the request when embedded, or is looked up by
// AssetID when the visual-metadata context needs one.
func (e *Engine) ClassifySeverity(ctx context.Context, req ReportRequest) (model.Severity, error) {
	in := ClassifyInput{
		Context: req.Context,
		Asset:   req.Asset,
		Default: req.Severity,
	}
	if in.Asset == nil && req.AssetID != "" && req.Context == ContextVisualMetadataMissing {
		asset, err := e.assets.FindByID(ctx, req.AssetID)
		if err != nil {
			return "", fmt.Errorf("load asset for classification: %w", err)
		}
		in.Asset = asset
	}
	if minutes, ok := req.Metadata.Int(MetaMinutesStuck); ok {
		in.MinutesStuck = minutes
	}
	return Classify(in), nil
}

// AttemptRecovery runs one self-healing pass: age escalation, a refresh from
// the store, then the first supporting repair strategy. Later strategies are
// never consulted in the same pass; the next scheduled sweep retries. Only a
// resolving strategy's change list surfaces to the caller, so routine polls
// stay quiet.
func (e *Engine) AttemptRecovery(ctx context.Context, inc *model.Incident) (RepairResult, error) {
	if inc.Resolved() {
		return RepairResult{}, nil
	}

	if err := e.policy.ApplyAgeEscalation(ctx, inc); err != nil {
		return RepairResult{}, err
	}

	fresh, err := e.incidents.FindByID(ctx, inc.ID)
	if err != nil {
		return RepairResult{}, fmt.Errorf("refresh incident: %w", err)
	}
	*inc = *fresh
	if inc.Resolved() {
		return RepairResult{}, nil
	}

	for _, strat := range e.strategies {
		if !strat.Supports(inc) {
			continue
		}

		res, err := strat.Attempt(ctx, inc)
		if err != nil {
			return RepairResult{}, fmt.Errorf("%s attempt: %w", strat.Name(), err)
		}
		if res.Resolved {
			if err := e.Resolve(ctx, inc, true); err != nil {
				return res, err
			}
			return res, nil
		}

		if err := e.incidents.IncrementRepairAttempts(ctx, inc.ID); err != nil {
			return RepairResult{}, fmt.Errorf("count repair attempt: %w", err)
		}
		if inc.Metadata == nil {
			inc.Metadata = model.Metadata{}
		}
		inc.Metadata[model.MetaRepairAttempts] = inc.Metadata.RepairAttempts() + 1
		return RepairResult{}, nil
	}

	return RepairResult{}, nil
}

// Resolve closes the incident. Idempotent: an already-resolved incident is
// left untouched, resolved_at included.
func (e *Engine) Resolve(ctx context.Context, inc *model.Incident, autoResolved bool) error {
	if inc.Resolved() {
		return nil
	}

	resolvedAt := e.now()
	if err := e.incidents.MarkResolved(ctx, inc.ID, resolvedAt, autoResolved); err != nil {
		return fmt.Errorf("resolve incident: %w", err)
	}

	inc.ResolvedAt = &resolvedAt
	inc.AutoResolved = autoResolved
	if autoResolved {
		if inc.Metadata == nil {
			inc.Metadata = model.Metadata{}
		}
		inc.Metadata[model.MetaAutoRecovered] = true
	}

	incidentsResolved.WithLabelValues(strconv.FormatBool(autoResolved)).Inc()
	e.logger.Info().
		Str("incident_id", inc.ID).
		Str("title", inc.Title).
		Bool("auto_resolved", autoResolved).
		Msg("incident resolved")
	return nil
}

// Escalate applies age-based escalation and opens a support ticket when the
// policy calls for one. Resolved incidents never escalate.
func (e *Engine) Escalate(ctx context.Context, inc *model.Incident) (*model.Ticket, error) {
	if inc.Resolved() {
		return nil, nil
	}
	if err := e.policy.ApplyAgeEscalation(ctx, inc); err != nil {
		return nil, err
	}
	if !e.policy.ShouldCreateTicket(inc) {
		return nil, nil
	}

	ticket, err := e.tickets.CreateFromIncident(ctx, inc)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	ticketsCreated.WithLabelValues(string(e.policy.EffectiveSeverity(inc))).Inc()
	e.logger.Info().
		Str("incident_id", inc.ID).
		Str("ticket_id", ticket.ID).
		Str("title", inc.Title).
		Msg("incident escalated to ticket")
	return ticket, nil
}

// ResolveBySource closes every open incident recorded against a subject,
// for when an external event (a successful manual fix, an asset delete)
// makes the whole group moot.
func (e *Engine) ResolveBySource(ctx context.Context, sourceType, sourceID string) (int, error) {
	n, err := e.incidents.ResolveBySource(ctx, sourceType, sourceID)
	if err != nil {
		return 0, fmt.Errorf("resolve incidents by source: %w", err)
	}
	if n > 0 {
		incidentsResolved.WithLabelValues("true").Add(float64(n))
		e.logger.Info().
			Str("source_type", sourceType).
			Str("source_id", sourceID).
			Int("count", n).
			Msg("incidents resolved by source")
	}
	return n, nil
}
