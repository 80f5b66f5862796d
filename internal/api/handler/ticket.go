package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/solvik/mediavault/internal/api/request"
	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
)

type Ticket struct {
	svc *core.TicketService
}

func NewTicket(svc *core.TicketService) *Ticket {
	return &Ticket{svc: svc}
}

// List godoc
//
//	@Summary		List support tickets
//	@Tags			Tickets
//	@Security		ApiKeyAuth
//	@Param			tenant_id query string false "Filter by tenant"
//	@Param			status query string false "Filter by status"
//	@Param			priority query string false "Filter by priority"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.Ticket}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/tickets [get]
func (h *Ticket) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	q := r.URL.Query()
	filters := core.TicketFilters{
		TenantID: q.Get("tenant_id"),
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
	}

	tickets, hasMore, err := h.svc.List(r.Context(), filters, pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(tickets) > 0 {
		nextCursor = tickets[len(tickets)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, tickets, nextCursor, hasMore)
}

// Get godoc
//
//	@Summary		Get a ticket
//	@Tags			Tickets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Ticket ID"
//	@Success		200 {object} model.Ticket
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/tickets/{id} [get]
func (h *Ticket) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ticket, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, ticket)
}

// Close godoc
//
//	@Summary		Close a ticket
//	@Tags			Tickets
//	@Security		ApiKeyAuth
//	@Param			id path string true "Ticket ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/tickets/{id}/close [post]
func (h *Ticket) Close(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Close(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
