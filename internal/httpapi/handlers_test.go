package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/warden-api/warden/internal/auth"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T
	store   auth.Store
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	store := auth.NewMemStore()
	if err := auth.EnsureDefaults(context.Background(), store); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}
	issuer, err := auth.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	authSvc, err := auth.NewService(store, issuer)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	rbacSvc, err := auth.NewRBACService(store)
	if err != nil {
		t.Fatalf("NewRBACService: %v", err)
	}

	api := New(ReadyProbe{}, "test", authSvc, rbacSvc)
	api.SetRateLimit(1000, 1000)

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL: srv.URL,
		client:  srv.Client(),
		t:       t,
		store:   store,
	}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

// login exchanges credentials for a token pair.
func (c *apiClient) login(username, password string) tokenResponse {
	c.t.Helper()
	resp := c.post("/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}
	payload := decode[tokenResponse](c.t, resp)
	if payload.Token == "" || payload.RefreshToken == "" {
		c.t.Fatalf("incomplete token response: %+v", payload)
	}
	return payload
}

func (c *apiClient) adminToken() string {
	c.t.Helper()
	return c.login(auth.DefaultAdminUsername, auth.DefaultAdminPassword).Token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/healthz", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status: %d", resp.StatusCode)
	}

	resp = c.get("/readyz", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status: %d", resp.StatusCode)
	}
}

func TestLoginAndRefreshFlow(t *testing.T) {
	c := newTestAPI(t)

	pair := c.login(auth.DefaultAdminUsername, auth.DefaultAdminPassword)
	if pair.User.Username != auth.DefaultAdminUsername {
		t.Fatalf("unexpected user in response: %+v", pair.User)
	}

	resp := c.post("/auth/refresh", nil, authHeaders(pair.RefreshToken))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status: %d", resp.StatusCode)
	}
	next := decode[tokenResponse](t, resp)
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh must rotate the refresh token")
	}

	// The consumed refresh token is rejected.
	resp = c.post("/auth/refresh", nil, authHeaders(pair.RefreshToken))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 reusing refresh token, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	c := newTestAPI(t)

	resp := c.post("/auth/login", map[string]any{
		"username": auth.DefaultAdminUsername,
		"password": "wrong",
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp2 := c.post("/auth/login", map[string]any{
		"username": "ghost",
		"password": "wrong",
	}, nil)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", resp2.StatusCode)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	c := newTestAPI(t)

	resp := c.get("/users", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp2 := c.get("/users", nil, authHeaders("garbage"))
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", resp2.StatusCode)
	}
}

func TestForbiddenWithoutPermission(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	// A role with no grants can authenticate but not manage users.
	rbac, err := auth.NewRBACService(c.store)
	if err != nil {
		t.Fatalf("NewRBACService: %v", err)
	}
	role, err := rbac.CreateRole(ctx, "bystander", nil)
	if err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if _, err := rbac.CreateUser(ctx, "limited", "S3cret!pass", role.ID); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	token := c.login("limited", "S3cret!pass").Token
	resp := c.get("/users", nil, authHeaders(token))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["error"] != forbiddenMessage {
		t.Fatalf("unexpected forbidden message: %v", body["error"])
	}
}

func TestUserCRUDOverHTTP(t *testing.T) {
	c := newTestAPI(t)
	token := c.adminToken()

	roles := decode[[]*auth.Role](t, c.get("/roles", nil, authHeaders(token)))
	if len(roles) == 0 {
		t.Fatal("expected seeded roles")
	}
	roleID := roles[0].ID

	resp := c.post("/users", map[string]any{
		"username": "alice",
		"password": "S3cret!pass",
		"roleId":   roleID,
	}, authHeaders(token))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc == "" {
		t.Fatal("expected Location header")
	}
	created := decode[auth.User](t, resp)
	if created.ID == "" || created.Username != "alice" {
		t.Fatalf("unexpected created user: %+v", created)
	}

	got := decode[auth.User](t, c.get("/users/"+created.ID, nil, authHeaders(token)))
	if got.ID != created.ID {
		t.Fatalf("get mismatch: %+v", got)
	}

	resp = c.do(http.MethodPut, "/users/"+created.ID, map[string]any{
		"username": "alice2",
	}, authHeaders(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: %d", resp.StatusCode)
	}
	updated := decode[auth.User](t, resp)
	if updated.Username != "alice2" {
		t.Fatalf("unexpected username: %q", updated.Username)
	}

	resp = c.do(http.MethodPatch, "/users/"+created.ID+"/inactivate", nil, authHeaders(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("inactivate status: %d", resp.StatusCode)
	}
	inactive := decode[auth.User](t, resp)
	if inactive.Status != auth.StatusInactive {
		t.Fatalf("unexpected status: %q", inactive.Status)
	}

	resp = c.do(http.MethodDelete, "/users/"+created.ID, nil, authHeaders(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}

	resp = c.get("/users/"+created.ID, nil, authHeaders(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestRoleCRUDOverHTTP(t *testing.T) {
	c := newTestAPI(t)
	token := c.adminToken()

	perms := decode[[]auth.Permission](t, c.get("/permissions", nil, authHeaders(token)))
	if len(perms) != len(auth.DefaultPermissions) {
		t.Fatalf("expected %d permissions, got %d", len(auth.DefaultPermissions), len(perms))
	}

	resp := c.post("/roles", map[string]any{
		"name":        "operator",
		"permissions": []string{perms[0].ID},
	}, authHeaders(token))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create role status: %d", resp.StatusCode)
	}
	role := decode[auth.Role](t, resp)
	if len(role.Permissions) != 1 {
		t.Fatalf("unexpected permissions: %+v", role.Permissions)
	}

	// Duplicate names conflict.
	resp = c.post("/roles", map[string]any{"name": "operator"}, authHeaders(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	resp = c.do(http.MethodPut, "/roles/"+role.ID, map[string]any{
		"permissions": []string{perms[1].ID, perms[2].ID},
	}, authHeaders(token))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update role status: %d", resp.StatusCode)
	}
	updated := decode[auth.Role](t, resp)
	if len(updated.Permissions) != 2 {
		t.Fatalf("expected wholesale replacement, got %+v", updated.Permissions)
	}

	resp = c.do(http.MethodDelete, "/roles/"+role.ID, nil, authHeaders(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete role status: %d", resp.StatusCode)
	}
}

func TestMalformedJSONRejected(t *testing.T) {
	c := newTestAPI(t)
	token := c.adminToken()

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/roles", bytes.NewReader([]byte("{not json")))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	c := newTestAPI(t)
	token := c.adminToken()

	resp := c.get("/nope", nil, authHeaders(token))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
