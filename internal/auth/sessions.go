package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/warden-api/warden/internal/ids"
)

// SessionManager enforces the single-refresh-session invariant: at most one
// stored refresh credential per user, rotated on every issuance. All
// operations on a user's session are serialized through a per-user lock so
// concurrent rotations cannot leave zero or duplicate rows.
type SessionManager struct {
	store SessionStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionManager wraps the given session store.
func NewSessionManager(store SessionStore) *SessionManager {
	return &SessionManager{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *SessionManager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// Rotate replaces the user's stored refresh credential with a hash of the
// new raw token. The raw token is reduced to a fixed-length sha256 digest
// first, then bcrypt-hashed so the stored material is only comparable
// through Matches.
func (m *SessionManager) Rotate(ctx context.Context, userID, rawToken string) error {
	if userID == "" || rawToken == "" {
		return errors.New("auth: user id and token are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tokenDigest(rawToken)), sessionCost)
	if err != nil {
		return err
	}
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return m.store.Replace(ctx, &RefreshSession{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: string(hash),
	})
}

// Matches reports whether the presented raw token corresponds to the
// user's stored session. Missing sessions and hash mismatches are
// indistinguishable.
func (m *SessionManager) Matches(ctx context.Context, userID, rawToken string) bool {
	if userID == "" || rawToken == "" {
		return false
	}
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	sess, err := m.store.Find(ctx, userID)
	if err != nil || sess == nil {
		return false
	}
	return CheckPassword(sess.TokenHash, tokenDigest(rawToken))
}

// Revoke drops the user's session, if any.
func (m *SessionManager) Revoke(ctx context.Context, userID string) error {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return m.store.DeleteByUser(ctx, userID)
}

func tokenDigest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
