package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/solvik/mediavault/internal/model"
)

// StuckThreshold is how long an incident may stay open before age-based
// escalation bumps its effective severity one step.
const StuckThreshold = 15 * time.Minute

var nextSeverity = map[model.Severity]model.Severity{
	model.SeverityInfo:     model.SeverityWarning,
	model.SeverityWarning:  model.SeverityError,
	model.SeverityError:    model.SeverityCritical,
	model.SeverityCritical: model.SeverityCritical,
}

// EscalationPolicy decides age-based severity escalation and ticket-creation
// gating. Stateless apart from the incident it is handed.
type EscalationPolicy struct {
	store  SeverityStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewEscalationPolicy(store SeverityStore, logger zerolog.Logger) *EscalationPolicy {
	return &EscalationPolicy{
		store:  store,
		logger: logger.With().Str("component", "escalation-policy").Logger(),
		now:    time.Now,
	}
}

// EffectiveSeverity computes the severity the incident would carry after
// age-based escalation, without mutating anything. An incident open for
// StuckThreshold or longer reads exactly one step above its stored severity;
// critical is absorbing.
func (p *EscalationPolicy) EffectiveSeverity(inc *model.Incident) model.Severity {
	base := model.ParseSeverity(string(inc.Severity))
	if inc.DetectedAt.IsZero() {
		return base
	}
	if inc.Age(p.now()) < StuckThreshold {
		return base
	}
	return nextSeverity[base]
}

// ApplyAgeEscalation persists an escalation only when the effective severity
// reaches critical while the stored severity is lower. Intermediate steps
// (info→warning, warning→error) stay computed-on-read; this keeps the write
// path quiet until an incident actually demands attention.
func (p *EscalationPolicy) ApplyAgeEscalation(ctx context.Context, inc *model.Incident) error {
	effective := p.EffectiveSeverity(inc)
	if effective != model.SeverityCritical {
		return nil
	}
	if model.ParseSeverity(string(inc.Severity)) == model.SeverityCritical {
		return nil
	}

	previous := inc.Severity
	if err := p.store.UpdateSeverity(ctx, inc.ID, model.SeverityCritical); err != nil {
		return fmt.Errorf("escalate severity: %w", err)
	}
	inc.Severity = model.SeverityCritical

	p.logger.Info().
		Str("incident_id", inc.ID).
		Str("title", inc.Title).
		Str("previous_severity", string(previous)).
		Str("new_severity", string(model.SeverityCritical)).
		Msg("incident escalated to critical by age")
	return nil
}

// ShouldCreateTicket reports whether accumulated failed repairs warrant a
// human-facing ticket at the incident's effective severity:
//
//	critical  always
//	error     repair_attempts >= 1
//	warning   repair_attempts >= 3
//	info      never
func (p *EscalationPolicy) ShouldCreateTicket(inc *model.Incident) bool {
	attempts := inc.Metadata.RepairAttempts()
	switch p.EffectiveSeverity(inc) {
	case model.SeverityCritical:
		return true
	case model.SeverityError:
		return attempts >= 1
	case model.SeverityWarning:
		return attempts >= 3
	default:
		return false
	}
}
