package model

import "time"

// Rendition is a derived representation of an asset (thumbnail, preview,
// web-optimized copy), stored under its own object key.
type Rendition struct {
	ID         string    `json:"id" db:"id"`
	AssetID    string    `json:"asset_id" db:"asset_id"`
	Profile    string    `json:"profile" db:"profile"`
	StorageKey string    `json:"storage_key" db:"storage_key"`
	Width      int       `json:"width" db:"width"`
	Height     int       `json:"height" db:"height"`
	SizeBytes  int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
