package e2e

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestHealthEndpoints verifies the liveness and readiness probes.
func TestHealthEndpoints(t *testing.T) {
	resp, body := httpGet(t, baseURL+"/healthz")
	require.Equal(t, 200, resp.StatusCode, "healthz: %s", body)
	health := parseJSON(t, body)
	require.Equal(t, "ok", health["status"])

	resp, body = httpGet(t, baseURL+"/readyz")
	require.Equal(t, 200, resp.StatusCode, "readyz: %s", body)
	ready := parseJSON(t, body)
	require.Equal(t, "ok", ready["db"], "database not ready: %s", body)
	require.Equal(t, "ok", ready["temporal"], "temporal not ready: %s", body)
}

// TestOpenAPIDocument verifies the embedded OpenAPI document is served.
func TestOpenAPIDocument(t *testing.T) {
	resp, body := httpGet(t, baseURL+"/docs/openapi.json")
	require.Equal(t, 200, resp.StatusCode)
	doc := parseJSON(t, body)
	require.NotEmpty(t, doc["paths"], "openapi document has no paths")
	require.Equal(t, "2.0", doc["swagger"])
}

// TestUnauthenticatedRequest verifies API endpoints reject missing keys.
func TestUnauthenticatedRequest(t *testing.T) {
	req, body := httpGetNoAuth(t, coreAPIURL+"/tenants")
	require.Equal(t, 401, req.StatusCode, "expected 401 without API key: %s", body)
}

// TestDashboardStats verifies the stats rollup returns the expected shape.
func TestDashboardStats(t *testing.T) {
	resp, body := httpGet(t, coreAPIURL+"/dashboard/stats")
	require.Equal(t, 200, resp.StatusCode, "dashboard stats: %s", body)
	stats := parseJSON(t, body)

	for _, key := range []string{"tenants", "brands", "assets", "incidents_open", "tickets_open"} {
		_, ok := stats[key]
		require.True(t, ok, "stats missing %q: %s", key, body)
	}
}

// TestSearch verifies cross-entity search returns grouped results.
func TestSearch(t *testing.T) {
	tenantID := createTestTenant(t, "e2e-search-tenant")

	resp, body := httpGet(t, coreAPIURL+"/search?q=e2e-search-tenant")
	require.Equal(t, 200, resp.StatusCode, "search: %s", body)
	result := parseJSON(t, body)

	raw, _ := result["results"].([]any)
	found := false
	for _, entry := range raw {
		m, _ := entry.(map[string]any)
		if m["id"] == tenantID {
			found = true
			break
		}
	}
	require.True(t, found, "search did not surface tenant %s: %s", tenantID, body)
}

// TestAuditTrail verifies mutating requests land in the audit log. The
// audit writer is asynchronous, so the check polls briefly.
func TestAuditTrail(t *testing.T) {
	tenantID := createTestTenant(t, "e2e-audit-tenant")

	resp, body := httpPut(t, coreAPIURL+"/tenants/"+tenantID, map[string]any{
		"name": "e2e-audit-tenant-renamed",
	})
	require.Equal(t, 200, resp.StatusCode, "update tenant: %s", body)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, body = httpGet(t, coreAPIURL+"/audit-logs?limit=100")
		require.Equal(t, 200, resp.StatusCode, "list audit logs: %s", body)
		for _, entry := range parsePaginatedItems(t, body) {
			if entry["resource_id"] == tenantID && entry["method"] == "PUT" {
				require.Equal(t, "tenants", entry["resource_type"])
				return
			}
		}
		time.Sleep(time.Second)
	}
	t.Fatalf("tenant update not in audit log after 10s")
}
