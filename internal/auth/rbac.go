package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/warden-api/warden/internal/ids"
)

// RBACService is the CRUD surface around the auth core: user and role
// management. The persistence layer stays dumb; password hashing and
// wholesale permission replacement happen here.
type RBACService struct {
	store Store
}

// NewRBACService constructs the CRUD service.
func NewRBACService(store Store) (*RBACService, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	return &RBACService{store: store}, nil
}

// UserUpdate is a partial user mutation. Password, when set, is plaintext
// and gets rehashed.
type UserUpdate struct {
	Username *string
	Password *string
	RoleID   *string
}

// RoleUpdate is a partial role mutation. PermissionIDs, when non-nil,
// replaces the role's grant set wholesale.
type RoleUpdate struct {
	Name          *string
	PermissionIDs []string
}

func (s *RBACService) ListUsers(ctx context.Context, limit, offset int) ([]*User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.Users().List(ctx, limit, offset)
}

func (s *RBACService) GetUser(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.store.Users().Find(ctx, id)
}

// CreateUser registers a principal. The username must be unique among
// live users and the role must exist.
func (s *RBACService) CreateUser(ctx context.Context, username, password, roleID string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return nil, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}

	if _, err := s.store.Users().FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: username already exists", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.Roles().Find(ctx, roleID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: role not found", ErrNotFound)
		}
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           ids.New(),
		Username:     username,
		PasswordHash: hash,
		Status:       StatusActive,
		RoleID:       roleID,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial mutation. Setting the raw password field
// recomputes the hash; nothing else touches stored credentials.
func (s *RBACService) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	user, err := s.store.Users().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
		}
		if username != user.Username {
			if _, err := s.store.Users().FindByUsername(ctx, username); err == nil {
				return nil, fmt.Errorf("%w: username already exists", ErrConflict)
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		user.Username = username
	}
	if upd.RoleID != nil {
		roleID := strings.TrimSpace(*upd.RoleID)
		if _, err := s.store.Roles().Find(ctx, roleID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: role not found", ErrNotFound)
			}
			return nil, err
		}
		user.RoleID = roleID
	}
	if upd.Password != nil {
		if strings.TrimSpace(*upd.Password) == "" {
			return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
		}
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUserStatus flips the lifecycle status.
func (s *RBACService) SetUserStatus(ctx context.Context, id, status string) (*User, error) {
	if status != StatusActive && status != StatusInactive {
		return nil, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, status)
	}
	user, err := s.store.Users().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Status = status
	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser tombstones the user. Deleting an absent user is a no-op.
func (s *RBACService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.store.Users().Find(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.store.Users().SoftDelete(ctx, id)
}

func (s *RBACService) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.store.Roles().List(ctx)
}

func (s *RBACService) GetRole(ctx context.Context, id string) (*Role, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: role id is required", ErrInvalidInput)
	}
	return s.store.Roles().Find(ctx, id)
}

// CreateRole creates a role with its full permission set. Every referenced
// permission must exist.
func (s *RBACService) CreateRole(ctx context.Context, name string, permissionIDs []string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
	}
	if _, err := s.store.Roles().FindByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: role already exists", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	perms, err := s.resolvePermissions(ctx, permissionIDs)
	if err != nil {
		return nil, err
	}

	role := &Role{
		ID:     ids.New(),
		Name:   name,
		Status: StatusActive,
	}
	if err := s.store.Roles().Create(ctx, role); err != nil {
		return nil, err
	}
	if err := s.store.Roles().SetPermissions(ctx, role.ID, permissionIDs); err != nil {
		return nil, err
	}
	role.Permissions = perms
	return role, nil
}

// UpdateRole renames a role and, when a permission list is supplied,
// replaces the grant set wholesale rather than diffing it.
func (s *RBACService) UpdateRole(ctx context.Context, id string, upd RoleUpdate) (*Role, error) {
	role, err := s.store.Roles().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: role name is required", ErrInvalidInput)
		}
		if name != role.Name {
			if _, err := s.store.Roles().FindByName(ctx, name); err == nil {
				return nil, fmt.Errorf("%w: role already exists", ErrConflict)
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		role.Name = name
		if err := s.store.Roles().Update(ctx, role); err != nil {
			return nil, err
		}
	}
	if upd.PermissionIDs != nil {
		perms, err := s.resolvePermissions(ctx, upd.PermissionIDs)
		if err != nil {
			return nil, err
		}
		if err := s.store.Roles().SetPermissions(ctx, role.ID, upd.PermissionIDs); err != nil {
			return nil, err
		}
		role.Permissions = perms
	}
	return role, nil
}

// SetRoleStatus flips the lifecycle status.
func (s *RBACService) SetRoleStatus(ctx context.Context, id, status string) (*Role, error) {
	if status != StatusActive && status != StatusInactive {
		return nil, fmt.Errorf("%w: unsupported status %s", ErrInvalidInput, status)
	}
	role, err := s.store.Roles().Find(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Status = status
	if err := s.store.Roles().Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole tombstones the role. Absent roles are a no-op.
func (s *RBACService) DeleteRole(ctx context.Context, id string) error {
	if _, err := s.store.Roles().Find(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return s.store.Roles().SoftDelete(ctx, id)
}

// ListPermissions returns the permission catalog.
func (s *RBACService) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.Permissions().List(ctx)
}

func (s *RBACService) resolvePermissions(ctx context.Context, ids []string) ([]Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	perms, err := s.store.Permissions().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(perms) != len(dedupe(ids)) {
		return nil, fmt.Errorf("%w: some permissions not found", ErrNotFound)
	}
	return perms, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
