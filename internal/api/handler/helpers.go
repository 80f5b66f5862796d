package handler

import (
	"net/http"
	"path"
	"strings"

	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
)

// checkTenant verifies that the parent tenant of a nested route exists.
// Returns false and writes an error response if it does not.
func checkTenant(w http.ResponseWriter, r *http.Request, tenantSvc *core.TenantService, tenantID string) bool {
	if _, err := tenantSvc.GetByID(r.Context(), tenantID); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return false
	}
	return true
}

// titleFromFilename derives a display title from an uploaded filename by
// dropping the directory part and extension.
func titleFromFilename(filename string) string {
	base := path.Base(filename)
	return strings.TrimSuffix(base, path.Ext(base))
}
