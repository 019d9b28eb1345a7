package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/warden-api/warden/internal/auth"
	"github.com/warden-api/warden/internal/obs"
)

const serviceName = "warden-api"

// ReadyProbe reports whether dependencies are reachable (for now, a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

type readinessChecker interface {
	Check(ctx context.Context) error
}

// API is the HTTP layer over the auth and RBAC services.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string
	auth       *auth.Service
	rbac       *auth.RBACService

	rateBurst  int
	ratePerSec int
}

// New wires all routes. Every mutating route is registered together with the
// permission tuple it requires; routes absent from that table are open to
// any authenticated principal.
func New(rp ReadyProbe, version string, authSvc *auth.Service, rbacSvc *auth.RBACService) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		auth:       authSvc,
		rbac:       rbacSvc,
		rateBurst:  20,
		ratePerSec: 10,
	}

	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	a.mux.HandleFunc("POST /auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /auth/refresh", a.handleRefresh)

	a.guarded("GET /users", a.handleListUsers)
	a.guarded("POST /users", a.handleCreateUser)
	a.guarded("GET /users/{id}", a.handleGetUser)
	a.guarded("PUT /users/{id}", a.handleUpdateUser)
	a.guarded("DELETE /users/{id}", a.handleDeleteUser)
	a.guarded("PATCH /users/{id}/activate", a.handleUserStatus(auth.StatusActive))
	a.guarded("PATCH /users/{id}/inactivate", a.handleUserStatus(auth.StatusInactive))

	a.guarded("GET /roles", a.handleListRoles)
	a.guarded("POST /roles", a.handleCreateRole)
	a.guarded("GET /roles/{id}", a.handleGetRole)
	a.guarded("PUT /roles/{id}", a.handleUpdateRole)
	a.guarded("DELETE /roles/{id}", a.handleDeleteRole)
	a.guarded("PATCH /roles/{id}/activate", a.handleRoleStatus(auth.StatusActive))
	a.guarded("PATCH /roles/{id}/inactivate", a.handleRoleStatus(auth.StatusInactive))

	a.guarded("GET /permissions", a.handleListPermissions)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// SetRateLimit overrides the default per-IP rate limit.
func (a *API) SetRateLimit(burst, perSec int) {
	if burst > 0 {
		a.rateBurst = burst
	}
	if perSec > 0 {
		a.ratePerSec = perSec
	}
}

// Handler returns the fully wrapped http.Handler.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// guarded registers a handler behind the permission table lookup for its
// route pattern.
func (a *API) guarded(pattern string, handler http.HandlerFunc) {
	required := routePermissions[pattern]
	a.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if !a.ensurePermissions(w, r, required) {
			return
		}
		handler(w, r)
	})
}

// --- health ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func parsePositiveInt(raw string, def, min, max int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if val < min || val > max {
		return 0, errors.New("out of range")
	}
	return val, nil
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, forbiddenMessage)
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
