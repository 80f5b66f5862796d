package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataIntCoercion(t *testing.T) {
	m := Metadata{
		"as_int":     3,
		"as_int64":   int64(4),
		"as_float64": float64(5),
		"as_string":  "6",
	}

	n, ok := m.Int("as_int")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = m.Int("as_int64")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = m.Int("as_float64")
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	_, ok = m.Int("as_string")
	assert.False(t, ok)

	_, ok = m.Int("absent")
	assert.False(t, ok)
}

func TestMetadataRepairAttemptsLegacyKey(t *testing.T) {
	assert.Equal(t, 0, Metadata{}.RepairAttempts())
	assert.Equal(t, 2, Metadata{MetaRepairAttempts: 2}.RepairAttempts())
	assert.Equal(t, 7, Metadata{MetaRecoveryAttemptCount: float64(7)}.RepairAttempts())

	// First non-null wins: the modern key shadows the legacy one.
	both := Metadata{MetaRepairAttempts: 1, MetaRecoveryAttemptCount: 9}
	assert.Equal(t, 1, both.RepairAttempts())
}

func TestMetadataSurvivesJSONRoundTrip(t *testing.T) {
	in := Metadata{
		MetaRepairAttempts: 2,
		MetaRetried:        true,
		MetaRetryCount:     1,
	}
	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out Metadata
	require.NoError(t, json.Unmarshal(raw, &out))

	// Numbers come back as float64; the readers must not care.
	assert.Equal(t, 2, out.RepairAttempts())
	assert.Equal(t, 1, out.RetryCount())
	assert.True(t, out.Retried())
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, ParseSeverity("CRITICAL"))
	assert.Equal(t, SeverityWarning, ParseSeverity("warning"))
	assert.Equal(t, SeverityInfo, ParseSeverity(""))
	assert.Equal(t, SeverityInfo, ParseSeverity("bogus"))

	assert.Greater(t, SeverityCritical.Rank(), SeverityError.Rank())
	assert.Greater(t, SeverityError.Rank(), SeverityWarning.Rank())
	assert.Greater(t, SeverityWarning.Rank(), SeverityInfo.Rank())
}

func TestIncidentHelpers(t *testing.T) {
	now := time.Now()
	inc := &Incident{DetectedAt: now.Add(-20 * time.Minute)}

	assert.False(t, inc.Resolved())
	assert.Equal(t, "", inc.SourceRef())
	assert.Equal(t, 20*time.Minute, inc.Age(now))

	id := "ast_123"
	inc.SourceID = &id
	assert.Equal(t, "ast_123", inc.SourceRef())

	inc.ResolvedAt = &now
	assert.True(t, inc.Resolved())

	assert.Equal(t, time.Duration(0), (&Incident{}).Age(now))
}
