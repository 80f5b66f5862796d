package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RejectsWithoutKey(t *testing.T) {
	// The header check runs before any DB lookup, so a nil pool is safe.
	var reached bool
	handler := Auth(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	tests := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"basic auth", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") }},
		{"bare token without scheme", func(r *http.Request) { r.Header.Set("Authorization", "mvk_abc123") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/assets", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "missing API key", body["error"])
		})
	}

	assert.False(t, reached, "handler must not run without a key")
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"x-api-key header", "X-API-Key", "mvk_abc123", "mvk_abc123"},
		{"bearer token", "Authorization", "Bearer mvk_abc123", "mvk_abc123"},
		{"no bearer prefix", "Authorization", "mvk_abc123", ""},
		{"basic auth ignored", "Authorization", "Basic dXNlcjpwYXNz", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			assert.Equal(t, tt.want, extractAPIKey(req))
		})
	}
}

func TestExtractAPIKey_HeaderWins(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-API-Key", "mvk_header")
	req.Header.Set("Authorization", "Bearer mvk_bearer")
	assert.Equal(t, "mvk_header", extractAPIKey(req))
}
