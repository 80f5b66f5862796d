package e2e

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTenantLifecycle walks a tenant through create -> get -> update ->
// suspend -> unsuspend -> delete.
func TestTenantLifecycle(t *testing.T) {
	// Step 1: Create.
	resp, body := httpPost(t, coreAPIURL+"/tenants", map[string]any{
		"name":                "e2e-lifecycle-tenant",
		"storage_quota_bytes": int64(5) << 30,
	})
	require.Equal(t, 201, resp.StatusCode, "create tenant: %s", body)
	tenant := parseJSON(t, body)
	tenantID := tenant["id"].(string)
	require.NotEmpty(t, tenantID)
	require.Equal(t, "active", tenant["status"])
	t.Logf("created tenant: %s", tenantID)

	t.Cleanup(func() {
		httpDelete(t, coreAPIURL+"/tenants/"+tenantID)
	})

	// Step 2: Get.
	resp, body = httpGet(t, coreAPIURL+"/tenants/"+tenantID)
	require.Equal(t, 200, resp.StatusCode, "get tenant: %s", body)
	fetched := parseJSON(t, body)
	require.Equal(t, "e2e-lifecycle-tenant", fetched["name"])
	require.EqualValues(t, int64(5)<<30, fetched["storage_quota_bytes"])

	// Step 3: Update.
	resp, body = httpPut(t, coreAPIURL+"/tenants/"+tenantID, map[string]any{
		"name": "e2e-lifecycle-tenant-renamed",
	})
	require.Equal(t, 200, resp.StatusCode, "update tenant: %s", body)
	updated := parseJSON(t, body)
	require.Equal(t, "e2e-lifecycle-tenant-renamed", updated["name"])

	// Step 4: Suspend.
	resp, body = httpPost(t, coreAPIURL+"/tenants/"+tenantID+"/suspend", nil)
	require.Equal(t, 204, resp.StatusCode, "suspend: %s", body)

	resp, body = httpGet(t, coreAPIURL+"/tenants/"+tenantID)
	require.Equal(t, 200, resp.StatusCode, body)
	suspended := parseJSON(t, body)
	require.Equal(t, "suspended", suspended["status"])
	t.Logf("tenant suspended")

	// Step 5: Unsuspend.
	resp, body = httpPost(t, coreAPIURL+"/tenants/"+tenantID+"/unsuspend", nil)
	require.Equal(t, 204, resp.StatusCode, "unsuspend: %s", body)

	resp, body = httpGet(t, coreAPIURL+"/tenants/"+tenantID)
	require.Equal(t, 200, resp.StatusCode, body)
	active := parseJSON(t, body)
	require.Equal(t, "active", active["status"])

	// Step 6: Delete.
	resp, body = httpDelete(t, coreAPIURL+"/tenants/"+tenantID)
	require.Equal(t, 204, resp.StatusCode, "delete tenant: %s", body)

	resp, _ = httpGet(t, coreAPIURL+"/tenants/"+tenantID)
	require.Equal(t, 404, resp.StatusCode, "deleted tenant should be gone")
	t.Logf("tenant deleted")
}

// TestTenantValidation verifies request validation on tenant creation.
func TestTenantValidation(t *testing.T) {
	resp, body := httpPost(t, coreAPIURL+"/tenants", map[string]any{
		"name": "",
	})
	require.Equal(t, 400, resp.StatusCode, "empty name should fail: %s", body)

	resp, body = httpPost(t, coreAPIURL+"/tenants", map[string]any{
		"name":                "e2e-negative-quota",
		"storage_quota_bytes": -1,
	})
	require.Equal(t, 400, resp.StatusCode, "negative quota should fail: %s", body)
}

// TestTenantList verifies listing and pagination.
func TestTenantList(t *testing.T) {
	createTestTenant(t, "e2e-list-tenant-a")
	createTestTenant(t, "e2e-list-tenant-b")

	resp, body := httpGet(t, coreAPIURL+"/tenants?limit=1")
	require.Equal(t, 200, resp.StatusCode, "list tenants: %s", body)
	page := parseJSON(t, body)
	items := parsePaginatedItems(t, body)
	require.Len(t, items, 1, "limit=1 should return one item")
	require.Equal(t, true, page["has_more"], "expected more pages")
	require.NotEmpty(t, page["next_cursor"])

	// Follow the cursor; the next page must not repeat the first item.
	cursor, _ := page["next_cursor"].(string)
	resp, body = httpGet(t, coreAPIURL+"/tenants?limit=1&cursor="+cursor)
	require.Equal(t, 200, resp.StatusCode, "list tenants page 2: %s", body)
	next := parsePaginatedItems(t, body)
	require.Len(t, next, 1)
	require.NotEqual(t, items[0]["id"], next[0]["id"], "cursor page repeated an item")
}
