package model

import "time"

// Tenant statuses.
const (
	TenantActive    = "active"
	TenantSuspended = "suspended"
)

type Tenant struct {
	ID                string    `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Status            string    `json:"status" db:"status"`
	StorageQuotaBytes int64     `json:"storage_quota_bytes" db:"storage_quota_bytes"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}
