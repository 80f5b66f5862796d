package request

type CreateTenant struct {
	Name              string `json:"name" validate:"required,min=1,max=255"`
	StorageQuotaBytes *int64 `json:"storage_quota_bytes" validate:"omitempty,min=0"`
}

type UpdateTenant struct {
	Name              *string `json:"name" validate:"omitempty,min=1,max=255"`
	StorageQuotaBytes *int64  `json:"storage_quota_bytes" validate:"omitempty,min=0"`
}
