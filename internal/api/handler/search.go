package handler

import (
	"net/http"
	"strconv"

	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/core"
)

const (
	searchDefaultLimit = 5
	searchMaxLimit     = 20
)

type Search struct {
	svc *core.SearchService
}

func NewSearch(svc *core.SearchService) *Search {
	return &Search{svc: svc}
}

type searchResponse struct {
	Results []core.SearchResult `json:"results"`
}

// Search godoc
//
//	@Summary		Search across assets, incidents, tickets and tenants
//	@Tags			Search
//	@Security		ApiKeyAuth
//	@Param			q query string true "Search query"
//	@Param			limit query int false "Max results per entity" default(5)
//	@Success		200 {object} searchResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/search [get]
func (h *Search) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		// An empty query matches nothing rather than everything.
		response.WriteJSON(w, http.StatusOK, searchResponse{Results: []core.SearchResult{}})
		return
	}

	results, err := h.svc.Search(r.Context(), q, searchLimit(r))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if results == nil {
		results = []core.SearchResult{}
	}

	response.WriteJSON(w, http.StatusOK, searchResponse{Results: results})
}

// searchLimit reads the per-entity result cap from the query string.
func searchLimit(r *http.Request) int {
	l, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || l <= 0 {
		return searchDefaultLimit
	}
	if l > searchMaxLimit {
		return searchMaxLimit
	}
	return l
}
