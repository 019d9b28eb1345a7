package auth

import "context"

// Store is the persistence boundary for the auth subsystem. The CRUD
// plumbing behind it stays dumb: password hashing, session rotation and
// cascade rules live in the services, not in the storage layer.
type Store interface {
	Users() UserStore
	Roles() RoleStore
	Permissions() PermissionStore
	Sessions() SessionStore
}

// UserStore manages principal records. All reads exclude soft-deleted rows.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	// FindWithRole loads the user together with its role and the role's
	// permissions. This is the lookup authorization relies on.
	FindWithRole(ctx context.Context, id string) (*User, *Role, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, error)
	Update(ctx context.Context, u *User) error
	// SoftDelete tombstones the user and hard-deletes its refresh session.
	SoftDelete(ctx context.Context, id string) error
}

// RoleStore manages roles. Find and List load granted permissions.
type RoleStore interface {
	Create(ctx context.Context, role *Role) error
	Find(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Update(ctx context.Context, role *Role) error
	// SetPermissions replaces the role's grant set wholesale.
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error
	SoftDelete(ctx context.Context, id string) error
}

// PermissionStore manages the immutable permission catalog.
type PermissionStore interface {
	Ensure(ctx context.Context, perms []Permission) error
	List(ctx context.Context) ([]Permission, error)
	FindByIDs(ctx context.Context, ids []string) ([]Permission, error)
}

// SessionStore persists refresh sessions, at most one per user.
type SessionStore interface {
	// Replace hard-deletes any session rows for sess.UserID and inserts
	// the new one, atomically.
	Replace(ctx context.Context, sess *RefreshSession) error
	Find(ctx context.Context, userID string) (*RefreshSession, error)
	DeleteByUser(ctx context.Context, userID string) error
}
