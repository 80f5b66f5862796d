package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solvik/mediavault/internal/api/request"
	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
	"github.com/solvik/mediavault/internal/model"
	"github.com/solvik/mediavault/internal/reliability"
)

type Incident struct {
	svc    *core.IncidentService
	engine *reliability.Engine
}

func NewIncident(services *core.Services) *Incident {
	return &Incident{svc: services.Incident, engine: services.Engine}
}

// Report godoc
//
//	@Summary		Report an incident
//	@Description	Records a failure against a source. Without an explicit severity the engine classifies one. A unique signature makes the report dedup-aware: the open incident carrying the same signature is returned instead of a duplicate.
//	@Tags			Incidents
//	@Security		ApiKeyAuth
//	@Param			body body request.ReportIncident true "Incident details"
//	@Success		201 {object} model.Incident
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/incidents [post]
func (h *Incident) Report(w http.ResponseWriter, r *http.Request) {
	var req request.ReportIncident
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := h.engine.Report(r.Context(), reliability.ReportRequest{
		SourceType:      req.SourceType,
		SourceID:        req.SourceID,
		TenantID:        req.TenantID,
		Title:           req.Title,
		Message:         req.Message,
		Severity:        model.Severity(req.Severity),
		Metadata:        model.Metadata(req.Metadata),
		Retryable:       req.Retryable,
		RequiresSupport: req.RequiresSupport,
		UniqueSignature: req.UniqueSignature,
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, inc)
}

// List godoc
//
//	@Summary		List incidents
//	@Tags			Incidents
//	@Security		ApiKeyAuth
//	@Param			tenant_id query string false "Filter by tenant"
//	@Param			severity query string false "Filter by severity"
//	@Param			source_type query string false "Filter by source type"
//	@Param			source_id query string false "Filter by source ID"
//	@Param			status query string false "Filter by status (open/resolved)"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Incident}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/incidents [get]
func (h *Incident) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	q := r.URL.Query()
	filters := core.IncidentFilters{
		TenantID:   q.Get("tenant_id"),
		Severity:   q.Get("severity"),
		SourceType: q.Get("source_type"),
		SourceID:   q.Get("source_id"),
		Status:     q.Get("status"),
	}

	incidents, hasMore, err := h.svc.List(r.Context(), filters, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(incidents) > 0 {
		nextCursor = incidents[len(incidents)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, incidents, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary		Get an incident
//	@Tags			Incidents
//	@Security		ApiKeyAuth
//	@Param			id path string true "Incident ID"
//	@Success		200 {object} model.Incident
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/incidents/{id} [get]
func (h *Incident) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := h.svc.FindByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, inc)
}

// Recover godoc
//
//	@Summary		Attempt automated recovery for an incident
//	@Description	Runs the repair strategy chain against the incident. The result reports whether the incident resolved and which fields changed; a dispatched repair job counts as progress, not resolution.
//	@Tags			Incidents
//	@Security		ApiKeyAuth
//	@Param			id path string true "Incident ID"
//	@Success		200 {object} reliability.RepairResult
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/incidents/{id}/recover [post]
func (h *Incident) Recover(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := h.svc.FindByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	result, err := h.engine.AttemptRecovery(r.Context(), inc)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

// Resolve godoc
//
//	@Summary		Resolve an incident
//	@Description	Marks the incident resolved by an operator. Idempotent.
//	@Tags			Incidents
//	@Security		ApiKeyAuth
//	@Param			id path string true "Incident ID"
//	@Success		200 {object} model.Incident
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/incidents/{id}/resolve [post]
func (h *Incident) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := h.svc.FindByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.engine.Resolve(r.Context(), inc, false); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, inc)
}

// escalateResponse reports the outcome of a manual escalation.
type escalateResponse struct {
	Escalated bool          `json:"escalated"`
	Ticket    *model.Ticket `json:"ticket,omitempty"`
}

// Escalate godoc
//
//	@Summary		Escalate an incident
//	@Description	Applies age-based escalation and opens a support ticket when the policy calls for one. Returns escalated=false when the incident stays below the ticket gate.
//	@Tags			Incidents
//	@Security		ApiKeyAuth
//	@Param			id path string true "Incident ID"
//	@Success		200 {object} escalateResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/incidents/{id}/escalate [post]
func (h *Incident) Escalate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inc, err := h.svc.FindByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	ticket, err := h.engine.Escalate(r.Context(), inc)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, escalateResponse{Escalated: ticket != nil, Ticket: ticket})
}

// resolveBySourceResponse reports how many incidents a source-wide resolve closed.
type resolveBySourceResponse struct {
	Resolved int `json:"resolved"`
}

// ResolveBySource godoc
//
//	@Summary		Resolve all open incidents for a source
//	@Description	Closes every open incident recorded against the given source, for when an external fix makes the whole group moot.
//	@Tags			Incidents
//	@Security		ApiKeyAuth
//	@Param			body body request.ResolveIncidentsBySource true "Source reference"
//	@Success		200 {object} resolveBySourceResponse
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/incidents/resolve-by-source [post]
func (h *Incident) ResolveBySource(w http.ResponseWriter, r *http.Request) {
	var req request.ResolveIncidentsBySource
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := h.engine.ResolveBySource(r.Context(), req.SourceType, req.SourceID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, resolveBySourceResponse{Resolved: n})
}
