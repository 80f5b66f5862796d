package reliability

import "github.com/solvik/mediavault/internal/model"

// Classification contexts accepted by Classify. Unknown contexts fall through
// to the default severity.
const (
	ContextVisualMetadataMissing = "visual_metadata_missing"
	ContextIncidentStuck         = "incident_stuck"
)

// stuckMinutes mirrors StuckThreshold for callers reporting elapsed minutes.
const stuckMinutes = 15

// ClassifyInput carries the situational signals severity is derived from.
type ClassifyInput struct {
	Context      string
	Asset        *model.Asset
	MinutesStuck int
	Default      model.Severity
}

// Classify maps situational context to a severity level. Pure: no side
// effects, and unrecognized input falls through to the default rather than
// failing.
func Classify(in ClassifyInput) model.Severity {
	switch in.Context {
	case ContextVisualMetadataMissing:
		if in.Asset != nil {
			if in.Asset.ThumbnailTimedOut && !in.Asset.HasDimensions() {
				return model.SeverityCritical
			}
			if in.Asset.RetryCount >= 2 {
				return model.SeverityError
			}
		}
		return model.SeverityWarning

	case ContextIncidentStuck:
		if in.MinutesStuck >= stuckMinutes {
			return model.SeverityCritical
		}
		return defaultSeverity(in.Default)

	default:
		return defaultSeverity(in.Default)
	}
}

func defaultSeverity(s model.Severity) model.Severity {
	if s == "" {
		return model.SeverityWarning
	}
	return s
}
