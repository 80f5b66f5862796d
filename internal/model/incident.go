package model

import (
	"strings"
	"time"
)

// Severity is an incident severity level. Stored lower-case; escalation only
// ever moves up the ordering, never down.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityWarning:  1,
	SeverityError:    2,
	SeverityCritical: 3,
}

// Rank orders severities for monotonicity comparisons.
func (s Severity) Rank() int {
	return severityRank[ParseSeverity(string(s))]
}

// ParseSeverity normalizes a stored severity string. Empty and unrecognized
// values read as info.
func ParseSeverity(s string) Severity {
	switch Severity(strings.ToLower(s)) {
	case SeverityInfo:
		return SeverityInfo
	case SeverityWarning:
		return SeverityWarning
	case SeverityError:
		return SeverityError
	case SeverityCritical:
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// Incident source types.
const (
	SourceAsset = "asset"
	SourceJob   = "job"
)

type Incident struct {
	ID              string     `json:"id" db:"id"`
	TenantID        *string    `json:"tenant_id,omitempty" db:"tenant_id"`
	Severity        Severity   `json:"severity" db:"severity"`
	SourceType      string     `json:"source_type" db:"source_type"`
	SourceID        *string    `json:"source_id,omitempty" db:"source_id"`
	Title           string     `json:"title" db:"title"`
	Message         string     `json:"message" db:"message"`
	Retryable       bool       `json:"retryable" db:"retryable"`
	RequiresSupport bool       `json:"requires_support" db:"requires_support"`
	AutoResolved    bool       `json:"auto_resolved" db:"auto_resolved"`
	Metadata        Metadata   `json:"metadata" db:"metadata"`
	UniqueSignature *string    `json:"unique_signature,omitempty" db:"unique_signature"`
	DetectedAt      time.Time  `json:"detected_at" db:"detected_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Resolved reports whether the incident is closed. A closed incident is
// terminal; every engine operation on it degrades to a no-op.
func (i *Incident) Resolved() bool {
	return i.ResolvedAt != nil
}

// SourceRef returns the subject id, empty when the incident has no subject.
func (i *Incident) SourceRef() string {
	if i.SourceID == nil {
		return ""
	}
	return *i.SourceID
}

// Age reports how long the incident has been open relative to now, zero when
// no detection time was recorded.
func (i *Incident) Age(now time.Time) time.Duration {
	if i.DetectedAt.IsZero() {
		return 0
	}
	return now.Sub(i.DetectedAt)
}
