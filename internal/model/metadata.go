package model

// Incident metadata keys used for repair bookkeeping. repair_attempts and
// recovery_attempt_count are interchangeable; the first non-null wins.
const (
	MetaRepairAttempts       = "repair_attempts"
	MetaRecoveryAttemptCount = "recovery_attempt_count"
	MetaRetried              = "retried"
	MetaRetriedAt            = "retried_at"
	MetaRetryCount           = "retry_count"
	MetaAutoRecovered        = "auto_recovered"
)

// Metadata is the open bookkeeping bag attached to an incident. It round-trips
// through JSONB, so numeric values usually arrive as float64.
type Metadata map[string]any

// Int reads an integer value, coercing JSON number representations.
func (m Metadata) Int(key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool reads a boolean value; absent or non-boolean reads as false.
func (m Metadata) Bool(key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

// RepairAttempts returns the accumulated failed-repair count, honoring the
// legacy key.
func (m Metadata) RepairAttempts() int {
	if n, ok := m.Int(MetaRepairAttempts); ok {
		return n
	}
	if n, ok := m.Int(MetaRecoveryAttemptCount); ok {
		return n
	}
	return 0
}

// Retried reports whether a retry job was already dispatched under the
// one-shot gate.
func (m Metadata) Retried() bool {
	return m.Bool(MetaRetried)
}

// RetryCount returns the capped-variant dispatch counter.
func (m Metadata) RetryCount() int {
	n, _ := m.Int(MetaRetryCount)
	return n
}

// AutoRecovered reports whether an automatic repair resolved the incident.
func (m Metadata) AutoRecovered() bool {
	return m.Bool(MetaAutoRecovered)
}
