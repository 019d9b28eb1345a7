package auth

import (
	"context"
	"errors"

	"github.com/warden-api/warden/internal/ids"
)

// Default seed identities.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "Password@123"
	DefaultAdminRole     = "admin"
)

// EnsureDefaults seeds the permission catalog, the admin role holding every
// permission, and the admin user. It is idempotent and safe to run at every
// startup.
func EnsureDefaults(ctx context.Context, store Store) error {
	if err := store.Permissions().Ensure(ctx, DefaultPermissions); err != nil {
		return err
	}

	role, err := store.Roles().FindByName(ctx, DefaultAdminRole)
	switch {
	case errors.Is(err, ErrNotFound):
		role = &Role{ID: ids.New(), Name: DefaultAdminRole, Status: StatusActive}
		if err := store.Roles().Create(ctx, role); err != nil {
			return err
		}
		perms, err := store.Permissions().List(ctx)
		if err != nil {
			return err
		}
		permIDs := make([]string, 0, len(perms))
		for _, p := range perms {
			permIDs = append(permIDs, p.ID)
		}
		if err := store.Roles().SetPermissions(ctx, role.ID, permIDs); err != nil {
			return err
		}
	case err != nil:
		return err
	}

	_, err = store.Users().FindByUsername(ctx, DefaultAdminUsername)
	if errors.Is(err, ErrNotFound) {
		hash, err := HashPassword(DefaultAdminPassword)
		if err != nil {
			return err
		}
		return store.Users().Create(ctx, &User{
			ID:           ids.New(),
			Username:     DefaultAdminUsername,
			PasswordHash: hash,
			Status:       StatusActive,
			RoleID:       role.ID,
		})
	}
	return err
}
