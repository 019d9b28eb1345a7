package auth

import (
	"context"
	"errors"
	"time"
)

// Service is the authentication core: credential verification, token pair
// issuance with refresh rotation, and refresh-token validation. Collaborators
// are injected explicitly; there is no ambient wiring.
type Service struct {
	store    Store
	issuer   *TokenIssuer
	sessions *SessionManager
	now      func() time.Time
}

// TokenPair carries one freshly signed access/refresh token couple.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// NewService builds the auth service on top of a store and token issuer.
func NewService(store Store, issuer *TokenIssuer) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	return &Service{
		store:    store,
		issuer:   issuer,
		sessions: NewSessionManager(store.Sessions()),
		now:      time.Now,
	}, nil
}

// Sessions exposes the session manager, mainly for tests and bootstrap.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// VerifyCredentials resolves a user by exact username and checks the
// password. A missing user and a wrong password are indistinguishable to
// the caller. User status is deliberately not checked here; gating on
// status is a separate policy layered by callers that want it.
func (s *Service) VerifyCredentials(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates the credentials and issues a token pair, rotating
// the stored refresh session.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, Principal, error) {
	user, err := s.VerifyCredentials(ctx, username, password)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	principal, err := s.Principal(ctx, user.ID)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	pair, err := s.IssueTokenPair(ctx, principal)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	return pair, principal, nil
}

// IssueTokenPair signs both tokens and persists the hashed refresh token.
// Issuance and persistence succeed or fail together: a rotation error
// discards the pair.
func (s *Service) IssueTokenPair(ctx context.Context, principal Principal) (TokenPair, error) {
	access, err := s.issuer.IssueAccessToken(principal.User)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.issuer.IssueRefreshToken(principal.User)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.sessions.Rotate(ctx, principal.User.ID, refresh); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a presented refresh token and exchanges it for a new
// pair. The exchange rotates the stored session, so a refresh token is
// single-use: re-presenting it after a successful exchange fails.
func (s *Service) Refresh(ctx context.Context, rawToken string) (TokenPair, Principal, error) {
	claims, err := s.issuer.ParseRefreshToken(rawToken)
	if err != nil {
		return TokenPair{}, Principal{}, ErrInvalidCredentials
	}
	// The exp claim is read and compared here as well as inside the
	// parser; the two checks must agree.
	if claims.ExpiresAt == nil || s.now().After(claims.ExpiresAt.Time) {
		return TokenPair{}, Principal{}, ErrInvalidCredentials
	}
	if !s.sessions.Matches(ctx, claims.UserID, rawToken) {
		return TokenPair{}, Principal{}, ErrInvalidCredentials
	}
	principal, err := s.Principal(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, Principal{}, ErrInvalidCredentials
	}
	pair, err := s.IssueTokenPair(ctx, principal)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	return pair, principal, nil
}

// AuthenticateAccessToken verifies an access token and resolves its
// principal with role and permissions loaded.
func (s *Service) AuthenticateAccessToken(ctx context.Context, token string) (Principal, error) {
	claims, err := s.issuer.ParseAccessToken(token)
	if err != nil {
		return Principal{}, ErrInvalidCredentials
	}
	principal, err := s.Principal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, ErrInvalidCredentials
		}
		return Principal{}, err
	}
	return principal, nil
}

// Principal loads a user with its role and granted permissions.
func (s *Service) Principal(ctx context.Context, userID string) (Principal, error) {
	user, role, err := s.store.Users().FindWithRole(ctx, userID)
	if err != nil {
		return Principal{}, err
	}
	return NewPrincipal(user, role), nil
}
