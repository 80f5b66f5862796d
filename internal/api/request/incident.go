package request

type ReportIncident struct {
	SourceType      string         `json:"source_type" validate:"required"`
	SourceID        string         `json:"source_id"`
	TenantID        string         `json:"tenant_id"`
	Title           string         `json:"title" validate:"required,max=256"`
	Message         string         `json:"message"`
	Severity        string         `json:"severity" validate:"omitempty,oneof=info warning error critical"`
	Metadata        map[string]any `json:"metadata"`
	Retryable       bool           `json:"retryable"`
	RequiresSupport bool           `json:"requires_support"`
	UniqueSignature string         `json:"unique_signature"`
}

type ResolveIncidentsBySource struct {
	SourceType string `json:"source_type" validate:"required"`
	SourceID   string `json:"source_id" validate:"required"`
}
