package model

import "time"

// Asset processing statuses.
const (
	AssetUploaded        = "uploaded"
	AssetProcessing      = "processing"
	AssetProcessed       = "processed"
	AssetPromotionFailed = "promotion_failed"
	AssetFailed          = "failed"
)

// Asset analysis statuses (derived-metadata extraction).
const (
	AnalysisPending   = "pending"
	AnalysisAnalyzing = "analyzing"
	AnalysisComplete  = "complete"
	AnalysisFailed    = "failed"
)

type Asset struct {
	ID                string    `json:"id" db:"id"`
	TenantID          string    `json:"tenant_id" db:"tenant_id"`
	BrandID           *string   `json:"brand_id,omitempty" db:"brand_id"`
	Title             string    `json:"title" db:"title"`
	OriginalFilename  string    `json:"original_filename" db:"original_filename"`
	MimeType          string    `json:"mime_type" db:"mime_type"`
	SizeBytes         int64     `json:"size_bytes" db:"size_bytes"`
	Checksum          string    `json:"checksum" db:"checksum"`
	StorageKey        string    `json:"storage_key" db:"storage_key"`
	Status            string    `json:"status" db:"status"`
	AnalysisStatus    string    `json:"analysis_status" db:"analysis_status"`
	Width             *int      `json:"width,omitempty" db:"width"`
	Height            *int      `json:"height,omitempty" db:"height"`
	ThumbnailTimedOut bool      `json:"thumbnail_timed_out" db:"thumbnail_timed_out"`
	RetryCount        int       `json:"retry_count" db:"retry_count"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// HasDimensions reports whether the probe recorded pixel dimensions.
func (a *Asset) HasDimensions() bool {
	return a.Width != nil && a.Height != nil
}

// AnalysisDone reports whether automatic metadata extraction finished.
func (a *Asset) AnalysisDone() bool {
	return a.AnalysisStatus == AnalysisComplete
}
