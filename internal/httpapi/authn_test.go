package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warden-api/warden/internal/auth"
)

func TestExtractBearerToken(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer abc.def", "abc.def", false},
		{"case insensitive scheme", "bearer abc", "abc", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Basic abc", "", true},
		{"empty token", "Bearer   ", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractBearerToken(tc.header)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got token %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestEnsurePermissionsFailsClosed(t *testing.T) {
	a := &API{}
	required := []auth.Tuple{{Name: auth.PermList, Scope: auth.ScopeUser}}

	// No principal in context: 401.
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	rr := httptest.NewRecorder()
	if a.ensurePermissions(rr, req, required) {
		t.Fatal("expected denial without principal")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	// Principal without the grant: 403 with the fixed message.
	role := &auth.Role{ID: "r-1", Name: "bystander", Status: auth.StatusActive}
	principal := auth.NewPrincipal(&auth.User{ID: "u-1", Username: "limited"}, role)
	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
	rr = httptest.NewRecorder()
	if a.ensurePermissions(rr, req, required) {
		t.Fatal("expected denial without grant")
	}
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestEnsurePermissionsEmptyRequirementAllows(t *testing.T) {
	a := &API{}
	req := httptest.NewRequest(http.MethodGet, "/whatever", nil)
	rr := httptest.NewRecorder()
	if !a.ensurePermissions(rr, req, nil) {
		t.Fatal("empty requirement must allow")
	}
}

func TestPublicPaths(t *testing.T) {
	for _, path := range []string{"/auth/login", "/auth/refresh", "/healthz", "/readyz", "/metrics"} {
		if !isPublicPath(path) {
			t.Fatalf("expected %s to be public", path)
		}
	}
	if isPublicPath("/users") {
		t.Fatal("expected /users to require auth")
	}
}
