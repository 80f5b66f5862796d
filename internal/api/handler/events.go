package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/solvik/mediavault/internal/api/response"
	"github.com/solvik/mediavault/internal/events"
)

// Events streams bus events to WebSocket subscribers.
type Events struct {
	bus *events.Bus
	db  *pgxpool.Pool
}

func NewEvents(bus *events.Bus, db *pgxpool.Pool) *Events {
	return &Events{bus: bus, db: db}
}

// Stream godoc
//
//	@Summary		Live event stream
//	@Description	Upgrades to WebSocket and streams incident, ticket and asset events as JSON text messages. Subscribers that fall behind lose events rather than stalling publishers.
//	@Tags			Events
//	@Param			token query string true "API key (WebSocket clients cannot set headers)"
//	@Param			tenant_id query string false "Only deliver events tagged with this tenant"
//	@Success		101
//	@Failure		401 {object} response.ErrorResponse
//	@Router			/events/stream [get]
func (h *Events) Stream(w http.ResponseWriter, r *http.Request) {
	// Auth via query param (WebSocket API doesn't support custom headers).
	token := r.URL.Query().Get("token")
	if token == "" {
		response.WriteError(w, http.StatusUnauthorized, "missing token")
		return
	}
	if err := h.validateToken(r.Context(), token); err != nil {
		response.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	tenantID := r.URL.Query().Get("tenant_id")

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin differs from Host when proxied through the portal UI.
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	// The subscription must be released before the connection goes away,
	// otherwise the bus keeps fanning out to a dead channel.
	ch, cancel := h.bus.Subscribe(64)
	defer cancel()

	// The stream is write-only; CloseRead pumps the read side so a client
	// close cancels the context.
	ctx := ws.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			ws.Close(websocket.StatusNormalClosure, "")
			return
		case evt, ok := <-ch:
			if !ok {
				ws.Close(websocket.StatusNormalClosure, "")
				return
			}
			if tenantID != "" && evt.TenantID != tenantID {
				continue
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err = ws.Write(writeCtx, websocket.MessageText, data)
			cancelWrite()
			if err != nil {
				return
			}
		}
	}
}

// validateToken checks the API key against the database (same logic as auth middleware).
func (h *Events) validateToken(ctx context.Context, key string) error {
	hash := sha256.Sum256([]byte(key))
	keyHash := hex.EncodeToString(hash[:])
	var id string
	return h.db.QueryRow(ctx,
		`SELECT id FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`,
		keyHash,
	).Scan(&id)
}
