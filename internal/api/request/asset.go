package request

// RegisterAsset holds the metadata fields of a multipart asset upload. The
// file part supplies the filename, content type and bytes.
type RegisterAsset struct {
	TenantID string `json:"tenant_id" validate:"required"`
	BrandID  string `json:"brand_id"`
	Title    string `json:"title" validate:"omitempty,max=255"`
}
