package httpapi

import (
	"net/http"
	"strings"

	"github.com/warden-api/warden/internal/audit"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	User         tokenUser `json:"user"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pair, principal, err := a.auth.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":  principal.User.ID,
		"username": principal.User.Username,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: tokenUser{
			ID:       principal.User.ID,
			Username: principal.User.Username,
		},
	})
}

// handleRefresh exchanges the refresh token presented as a bearer credential
// for a fresh pair. Any validation failure is reported uniformly as 401.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	pair, principal, err := a.auth.Refresh(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"user_id": principal.User.ID,
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: tokenUser{
			ID:       principal.User.ID,
			Username: principal.User.Username,
		},
	})
}
