package storage

import (
	"path"
	"strings"
)

// OriginalKey builds the object key for an uploaded original.
// Example: tenants/tnt_x/assets/ast_y/original/hero.png
func OriginalKey(tenantID, assetID, filename string) string {
	return "tenants/" + tenantID + "/assets/" + assetID + "/original/" + SanitizeFilename(filename)
}

// RenditionKey builds the object key for a generated rendition, keeping the
// original's extension.
// Example: tenants/tnt_x/assets/ast_y/renditions/thumb.png
func RenditionKey(tenantID, assetID, profile, originalFilename string) string {
	ext := path.Ext(originalFilename)
	return "tenants/" + tenantID + "/assets/" + assetID + "/renditions/" + profile + ext
}

// PublicKey builds the object key an asset is promoted to.
func PublicKey(tenantID, assetID, filename string) string {
	return "public/" + tenantID + "/" + assetID + "/" + SanitizeFilename(filename)
}

// AssetPrefix covers every object belonging to one asset.
func AssetPrefix(tenantID, assetID string) string {
	return "tenants/" + tenantID + "/assets/" + assetID + "/"
}

// TenantPrefix covers every object belonging to one tenant.
func TenantPrefix(tenantID string) string {
	return "tenants/" + tenantID + "/"
}

// SanitizeFilename strips path components and replaces characters that are
// awkward in object keys or URLs. Empty input becomes "file".
func SanitizeFilename(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))

	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	out := strings.Trim(b.String(), "-.")
	if out == "" {
		return "file"
	}
	return out
}
