package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warden-api/warden/internal/ids"
)

// MemStore is an in-memory Store used when no database is configured and
// throughout the tests. Soft-delete and cascade semantics mirror the SQL
// implementation.
type MemStore struct {
	mu        sync.RWMutex
	users     map[string]*memUser
	roles     map[string]*memRole
	perms     map[string]Permission
	rolePerms map[string][]string
	sessions  map[string]*RefreshSession
}

type memUser struct {
	User
	deleted bool
}

type memRole struct {
	Role
	deleted bool
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		users:     make(map[string]*memUser),
		roles:     make(map[string]*memRole),
		perms:     make(map[string]Permission),
		rolePerms: make(map[string][]string),
		sessions:  make(map[string]*RefreshSession),
	}
}

func (m *MemStore) Users() UserStore             { return (*memUserStore)(m) }
func (m *MemStore) Roles() RoleStore             { return (*memRoleStore)(m) }
func (m *MemStore) Permissions() PermissionStore { return (*memPermStore)(m) }
func (m *MemStore) Sessions() SessionStore       { return (*memSessionStore)(m) }

// Users ---------------------------------------------------------------

type memUserStore MemStore

func (s *memUserStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = &memUser{User: *u}
	return nil
}

func (s *memUserStore) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok || rec.deleted {
		return nil, ErrNotFound
	}
	u := rec.User
	return &u, nil
}

func (s *memUserStore) FindWithRole(ctx context.Context, id string) (*User, *Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok || rec.deleted {
		return nil, nil, ErrNotFound
	}
	u := rec.User
	roleRec, ok := s.roles[u.RoleID]
	if !ok || roleRec.deleted {
		return &u, nil, nil
	}
	role := roleRec.Role
	role.Permissions = (*MemStore)(s).permissionsForRole(role.ID)
	return &u, &role, nil
}

func (s *memUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.users {
		if !rec.deleted && rec.Username == username {
			u := rec.User
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUserStore) List(ctx context.Context, limit, offset int) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live := make([]*User, 0, len(s.users))
	for _, rec := range s.users {
		if rec.deleted {
			continue
		}
		u := rec.User
		live = append(live, &u)
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].ID < live[j].ID
		}
		return live[i].CreatedAt.Before(live[j].CreatedAt)
	})
	if offset >= len(live) {
		return nil, nil
	}
	live = live[offset:]
	if limit < len(live) {
		live = live[:limit]
	}
	return live, nil
}

func (s *memUserStore) Update(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[u.ID]
	if !ok || rec.deleted {
		return ErrNotFound
	}
	u.CreatedAt = rec.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	rec.User = *u
	return nil
}

func (s *memUserStore) SoftDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok || rec.deleted {
		return ErrNotFound
	}
	rec.deleted = true
	delete(s.sessions, id)
	return nil
}

// Roles ---------------------------------------------------------------

type memRoleStore MemStore

func (s *memRoleStore) Create(ctx context.Context, role *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	role.CreatedAt, role.UpdatedAt = now, now
	s.roles[role.ID] = &memRole{Role: *role}
	return nil
}

func (s *memRoleStore) Find(ctx context.Context, id string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.roles[id]
	if !ok || rec.deleted {
		return nil, ErrNotFound
	}
	role := rec.Role
	role.Permissions = (*MemStore)(s).permissionsForRole(id)
	return &role, nil
}

func (s *memRoleStore) FindByName(ctx context.Context, name string) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.roles {
		if !rec.deleted && rec.Name == name {
			role := rec.Role
			role.Permissions = (*MemStore)(s).permissionsForRole(role.ID)
			return &role, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memRoleStore) List(ctx context.Context) ([]*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live := make([]*Role, 0, len(s.roles))
	for _, rec := range s.roles {
		if rec.deleted {
			continue
		}
		role := rec.Role
		role.Permissions = (*MemStore)(s).permissionsForRole(role.ID)
		live = append(live, &role)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })
	return live, nil
}

func (s *memRoleStore) Update(ctx context.Context, role *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.roles[role.ID]
	if !ok || rec.deleted {
		return ErrNotFound
	}
	role.CreatedAt = rec.CreatedAt
	role.UpdatedAt = time.Now().UTC()
	rec.Role = *role
	rec.Role.Permissions = nil
	return nil
}

func (s *memRoleStore) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID]; !ok {
		return ErrNotFound
	}
	s.rolePerms[roleID] = append([]string(nil), permissionIDs...)
	return nil
}

func (s *memRoleStore) SoftDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.roles[id]
	if !ok || rec.deleted {
		return ErrNotFound
	}
	rec.deleted = true
	return nil
}

// Permissions ----------------------------------------------------------

type memPermStore MemStore

func (s *memPermStore) Ensure(ctx context.Context, perms []Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range perms {
		if (*MemStore)(s).findPermByTuple(p.Tuple()) != nil {
			continue
		}
		if p.ID == "" {
			p.ID = ids.New()
		}
		p.CreatedAt = time.Now().UTC()
		s.perms[p.ID] = p
	}
	return nil
}

func (s *memPermStore) List(ctx context.Context) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Permission, 0, len(s.perms))
	for _, p := range s.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scope == out[j].Scope {
			return out[i].Name < out[j].Name
		}
		return out[i].Scope < out[j].Scope
	})
	return out, nil
}

func (s *memPermStore) FindByIDs(ctx context.Context, permIDs []string) ([]Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Permission
	seen := make(map[string]struct{}, len(permIDs))
	for _, id := range permIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.perms[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Sessions ---------------------------------------------------------------

type memSessionStore MemStore

func (s *memSessionStore) Replace(ctx context.Context, sess *RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	sess.CreatedAt, sess.UpdatedAt = now, now
	// Keyed by user id, so the delete-then-insert collapses to a single
	// assignment while preserving the one-session invariant.
	s.sessions[sess.UserID] = sess
	return nil
}

func (s *memSessionStore) Find(ctx context.Context, userID string) (*RefreshSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessionStore) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// helpers; callers hold m.mu.

func (m *MemStore) permissionsForRole(roleID string) []Permission {
	idsForRole := m.rolePerms[roleID]
	if len(idsForRole) == 0 {
		return nil
	}
	out := make([]Permission, 0, len(idsForRole))
	for _, id := range idsForRole {
		if p, ok := m.perms[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *MemStore) findPermByTuple(t Tuple) *Permission {
	for _, p := range m.perms {
		if p.Tuple() == t {
			cp := p
			return &cp
		}
	}
	return nil
}
