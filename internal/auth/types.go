package auth

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is a principal record. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	RoleID       string    `json:"roleId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Role groups permissions. Permissions are loaded only by the store calls
// that declare so.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	Permissions []Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// Permission is immutable reference data. The (Name, Scope) pair is the
// logical key used at authorization time; ID is a storage detail.
type Permission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Scope       string    `json:"scope"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Tuple identifies one grantable capability.
type Tuple struct {
	Name  string
	Scope string
}

// Tuple returns the permission's logical key.
func (p Permission) Tuple() Tuple {
	return Tuple{Name: p.Name, Scope: p.Scope}
}

// RefreshSession is the single persisted refresh credential for a user.
// TokenHash holds bcrypt(sha256hex(raw token)), never the token itself.
type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is a user with role and granted permission tuples resolved.
type Principal struct {
	User        *User
	Role        *Role
	permissions map[Tuple]struct{}
}

// NewPrincipal indexes the role's permissions for constant-time tuple
// lookups. A nil role yields a principal with no grants.
func NewPrincipal(user *User, role *Role) Principal {
	p := Principal{User: user, Role: role}
	if role == nil {
		return p
	}
	p.permissions = make(map[Tuple]struct{}, len(role.Permissions))
	for _, perm := range role.Permissions {
		p.permissions[perm.Tuple()] = struct{}{}
	}
	return p
}

// HasPermission reports whether the principal's role grants the tuple.
func (p Principal) HasPermission(t Tuple) bool {
	_, ok := p.permissions[t]
	return ok
}
