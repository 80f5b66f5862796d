package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTicketHandler() *Ticket {
	return NewTicket(nil)
}

// --- Get ---

func TestTicketGet_EmptyID(t *testing.T) {
	h := newTicketHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodGet, "/tickets/", nil)
	r = withChiURLParam(r, "id", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

func TestTicketGet_MissingURLParam(t *testing.T) {
	h := newTicketHandler()
	rec := httptest.NewRecorder()
	// No chi context set, so URLParam returns ""
	r := newRequest(http.MethodGet, "/tickets/", nil)

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Close ---

func TestTicketClose_EmptyID(t *testing.T) {
	h := newTicketHandler()
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/tickets//close", nil)
	r = withChiURLParam(r, "id", "")

	h.Close(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}
