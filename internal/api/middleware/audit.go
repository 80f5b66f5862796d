package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const insertAuditLog = `
	INSERT INTO audit_logs (api_key_id, method, path, resource_type, resource_id, status_code, request_body, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())`

// AuditLogger records mutating API requests to the audit_logs table. Writes
// happen on a background goroutine so a slow insert never delays a response.
type AuditLogger struct {
	pool    *pgxpool.Pool
	logger  zerolog.Logger
	entries chan auditEntry
	done    chan struct{}
}

type auditEntry struct {
	APIKeyID     *string
	Method       string
	Path         string
	ResourceType *string
	ResourceID   *string
	StatusCode   int
	RequestBody  json.RawMessage
}

func NewAuditLogger(pool *pgxpool.Pool, logger zerolog.Logger) *AuditLogger {
	al := &AuditLogger{
		pool:    pool,
		logger:  logger,
		entries: make(chan auditEntry, 1024),
		done:    make(chan struct{}),
	}
	go al.drain()
	return al
}

func (al *AuditLogger) drain() {
	defer close(al.done)
	for entry := range al.entries {
		al.write(entry)
	}
}

func (al *AuditLogger) write(entry auditEntry) {
	// The request context is gone by the time the entry lands here.
	_, err := al.pool.Exec(context.Background(), insertAuditLog,
		entry.APIKeyID, entry.Method, entry.Path, entry.ResourceType,
		entry.ResourceID, entry.StatusCode, entry.RequestBody)
	if err != nil {
		al.logger.Error().Err(err).Str("path", entry.Path).Msg("failed to write audit log")
	}
}

// Close stops the writer once the queued entries are flushed.
func (al *AuditLogger) Close() {
	close(al.entries)
	<-al.done
}

// Middleware records POST, PUT and DELETE requests. Reads are not audited.
func (al *AuditLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !mutating(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		body := bufferBody(r)
		sw := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(sw, r)

		resourceType, resourceID := extractResource(r.URL.Path)
		entry := auditEntry{
			APIKeyID:     apiKeyIDFrom(r.Context()),
			Method:       r.Method,
			Path:         r.URL.Path,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			StatusCode:   sw.Status(),
		}
		// Multipart uploads carry raw file bytes, so only valid JSON
		// bodies are kept, with credential fields redacted.
		if len(body) > 0 && json.Valid(body) {
			entry.RequestBody = sanitizeBody(body)
		}

		select {
		case al.entries <- entry:
		default:
			al.logger.Warn().Msg("audit log buffer full, dropping entry")
		}
	})
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// bufferBody reads the request body and replaces it so the handler can read
// it again.
func bufferBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	b, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(b))
	return b
}

func apiKeyIDFrom(ctx context.Context) *string {
	if id, ok := ctx.Value(APIKeyIDKey).(string); ok {
		return &id
	}
	return nil
}

func extractResource(path string) (*string, *string) {
	// Extract the last resource type and optional ID from the path.
	// e.g., /api/v1/tenants -> type=tenants
	//       /api/v1/tenants/abc -> type=tenants, id=abc
	//       /api/v1/tenants/abc/brands -> type=brands
	//       /api/v1/tenants/abc/brands/def -> type=brands, id=def
	// Trailing action verbs (/assets/def/reprocess) are skipped so the
	// entry names the resource acted on, not the action.
	parts := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(parts) == 0 {
		return nil, nil
	}

	// Walk the parts: resource types are at even indices, IDs at odd indices.
	var resourceType, resourceID *string
	for i, part := range parts {
		if part == "" || actionVerbs[part] {
			continue
		}
		if i%2 == 0 {
			p := part
			resourceType = &p
			resourceID = nil
		} else {
			p := part
			resourceID = &p
		}
	}

	return resourceType, resourceID
}

// actionVerbs are path segments that name an operation on the preceding
// resource rather than a nested collection.
var actionVerbs = map[string]bool{
	"suspend": true, "unsuspend": true, "reprocess": true, "recover": true,
	"resolve": true, "resolve-by-source": true, "escalate": true,
	"close": true, "revoke": true,
}

// sensitiveFields are fields that should be redacted from audit logs.
var sensitiveFields = map[string]bool{
	"password": true, "api_key": true, "secret": true, "token": true,
}

func sanitizeBody(body []byte) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}
	for k := range data {
		if sensitiveFields[k] {
			data[k] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return sanitized
}
