package e2e

import (
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// portalEmail and portalPassword return the portal login used for session
// tests, defaulting to the dev seed user.
func portalEmail() string {
	if v := os.Getenv("MEDIAVAULT_E2E_EMAIL"); v != "" {
		return v
	}
	return "admin@acme-media.test"
}

func portalPassword() string {
	if v := os.Getenv("MEDIAVAULT_E2E_PASSWORD"); v != "" {
		return v
	}
	return "password"
}

// httpGetBearer performs an HTTP GET with a Bearer session token.
func httpGetBearer(t *testing.T, url, token string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("create GET request %s: %v", url, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

// TestPortalSession verifies the email/password login flow and session
// introspection.
func TestPortalSession(t *testing.T) {
	// Step 1: Log in.
	resp, body := httpPost(t, baseURL+"/auth/sessions", map[string]any{
		"email":    portalEmail(),
		"password": portalPassword(),
	})
	require.Equal(t, 200, resp.StatusCode, "login: %s", body)
	session := parseJSON(t, body)
	token, _ := session["token"].(string)
	require.NotEmpty(t, token, "login should return a session token")
	t.Logf("logged in as %s", portalEmail())

	// Step 2: Introspect the session.
	resp, body = httpGetBearer(t, baseURL+"/auth/me", token)
	require.Equal(t, 200, resp.StatusCode, "get session user: %s", body)
	user := parseJSON(t, body)
	require.Equal(t, portalEmail(), user["email"])
	require.NotEmpty(t, user["id"])
	require.Nil(t, user["password_hash"], "password hash should never leave the server")
}

// TestPortalSessionRejectsBadPassword verifies wrong credentials fail closed.
func TestPortalSessionRejectsBadPassword(t *testing.T) {
	resp, body := httpPost(t, baseURL+"/auth/sessions", map[string]any{
		"email":    portalEmail(),
		"password": "definitely-not-the-password",
	})
	require.Equal(t, 401, resp.StatusCode, "bad password should fail: %s", body)
}

// TestPortalSessionMeRequiresToken verifies introspection rejects missing and
// garbage tokens.
func TestPortalSessionMeRequiresToken(t *testing.T) {
	resp, _ := httpGetNoAuth(t, baseURL+"/auth/me")
	require.Equal(t, 401, resp.StatusCode, "missing token should fail")

	resp, _ = httpGetBearer(t, baseURL+"/auth/me", "not-a-jwt")
	require.Equal(t, 401, resp.StatusCode, "garbage token should fail")
}
