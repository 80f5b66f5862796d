package handler

import (
	"net/http"

	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
)

// Dashboard serves the aggregate stats endpoint backing the ops overview.
type Dashboard struct {
	svc *core.DashboardService
}

func NewDashboard(svc *core.DashboardService) *Dashboard {
	return &Dashboard{svc: svc}
}

// Stats godoc
//
//	@Summary		Get platform statistics
//	@Description	Returns platform-wide counts: tenants, assets and storage use, plus open incident and ticket totals with severity breakdowns.
//	@Tags			Dashboard
//	@Security		ApiKeyAuth
//	@Success		200	{object}	core.DashboardStats
//	@Failure		500	{object}	response.ErrorResponse
//	@Router			/dashboard/stats [get]
func (h *Dashboard) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}
