package e2e

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
)

// wsURL rewrites the HTTP base URL to its WebSocket scheme.
func wsURL(path string) string {
	return "ws" + strings.TrimPrefix(baseURL, "http") + path
}

// streamEvent mirrors the wire shape of bus events.
type streamEvent struct {
	Type     string          `json:"type"`
	TenantID string          `json:"tenant_id"`
	Payload  json.RawMessage `json:"payload"`
}

// TestEventStream verifies the live event stream delivers incident lifecycle
// events to WebSocket subscribers.
func TestEventStream(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Step 1: Subscribe.
	conn, _, err := websocket.Dial(ctx, wsURL("/events/stream?token="+apiKey()), nil)
	require.NoError(t, err, "dial event stream")
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The server registers the subscription just after the upgrade; give it a
	// beat before publishing.
	time.Sleep(500 * time.Millisecond)

	// Step 2: Report an incident and expect its event on the stream.
	resp, body := httpPost(t, coreAPIURL+"/incidents", map[string]any{
		"source_type": "job",
		"title":       "E2E stream incident",
		"severity":    "info",
	})
	require.Equal(t, 201, resp.StatusCode, "report incident: %s", body)
	incident := parseJSON(t, body)
	incidentID := incident["id"].(string)
	t.Cleanup(func() { httpPost(t, coreAPIURL+"/incidents/"+incidentID+"/resolve", nil) })

	reported := awaitEvent(t, ctx, conn, "incident.reported", func(payload map[string]any) bool {
		return payload["id"] == incidentID
	})
	require.Equal(t, "E2E stream incident", payloadField(t, reported, "title"))
	t.Logf("received incident.reported for %s", incidentID)

	// Step 3: Resolve it and expect the resolution event.
	resp, body = httpPost(t, coreAPIURL+"/incidents/"+incidentID+"/resolve", nil)
	require.Equal(t, 200, resp.StatusCode, "resolve: %s", body)

	awaitEvent(t, ctx, conn, "incident.resolved", func(payload map[string]any) bool {
		return payload["incident_id"] == incidentID
	})
	t.Logf("received incident.resolved for %s", incidentID)
}

// TestEventStreamRejectsBadToken verifies the stream handshake fails closed.
func TestEventStreamRejectsBadToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, wsURL("/events/stream?token=mvk_bogus"), nil)
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "")
	}
	require.Error(t, err, "bad token should not upgrade")
	if resp != nil {
		require.Equal(t, 401, resp.StatusCode)
	}
}

// awaitEvent reads stream frames until one matches the wanted type and
// payload predicate. Unrelated events (background sweeps, other tests) are
// skipped.
func awaitEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, wantType string, match func(map[string]any) bool) streamEvent {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("waiting for %s event: %v", wantType, err)
		}
		var evt streamEvent
		if err := json.Unmarshal(data, &evt); err != nil {
			t.Fatalf("decode event frame %q: %v", data, err)
		}
		if evt.Type != wantType {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal(evt.Payload, &payload); err != nil {
			continue
		}
		if match(payload) {
			return evt
		}
	}
}

// payloadField extracts one field from an event payload.
func payloadField(t *testing.T, evt streamEvent, field string) any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(evt.Payload, &payload))
	return payload[field]
}
