package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warden-api/warden/internal/auth"
)

type roleStore struct{ db *sql.DB }

const roleColumns = `id, name, status, created_at, updated_at`

func (s *roleStore) Create(ctx context.Context, role *auth.Role) error {
	return s.db.QueryRowContext(ctx, `
		insert into roles(id, name, status)
		values($1,$2,$3)
		returning created_at, updated_at
	`, role.ID, role.Name, role.Status).Scan(&role.CreatedAt, &role.UpdatedAt)
}

func (s *roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where id=$1 and deleted_at is null`, id)
	return s.scanWithPermissions(ctx, row)
}

func (s *roleStore) FindByName(ctx context.Context, name string) (*auth.Role, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where name=$1 and deleted_at is null`, name)
	return s.scanWithPermissions(ctx, row)
}

func (s *roleStore) List(ctx context.Context) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+roleColumns+` from roles
		where deleted_at is null
		order by created_at asc, id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*auth.Role
	for rows.Next() {
		var role auth.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Status, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, role := range res {
		role.Permissions, err = rolePermissions(ctx, s.db, role.ID)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (s *roleStore) Update(ctx context.Context, role *auth.Role) error {
	err := s.db.QueryRowContext(ctx, `
		update roles
		set name=$2, status=$3, updated_at=now()
		where id=$1 and deleted_at is null
		returning updated_at
	`, role.ID, role.Name, role.Status).Scan(&role.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrNotFound
	}
	return err
}

// SetPermissions replaces the grant set in one transaction.
func (s *roleStore) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from role_permissions where role_id=$1`, roleID); err != nil {
		return err
	}
	for _, permID := range permissionIDs {
		if _, err := tx.ExecContext(ctx,
			`insert into role_permissions(role_id, permission_id) values($1,$2)`,
			roleID, permID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *roleStore) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update roles set deleted_at=now() where id=$1 and deleted_at is null`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *roleStore) scanWithPermissions(ctx context.Context, row *sql.Row) (*auth.Role, error) {
	var role auth.Role
	if err := row.Scan(&role.ID, &role.Name, &role.Status, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	var err error
	role.Permissions, err = rolePermissions(ctx, s.db, role.ID)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func rolePermissions(ctx context.Context, db *sql.DB, roleID string) ([]auth.Permission, error) {
	rows, err := db.QueryContext(ctx, `
		select p.id, p.name, p.scope, p.description, p.created_at
		from role_permissions rp
		join permissions p on p.id = rp.permission_id
		where rp.role_id=$1
		order by p.scope asc, p.name asc
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []auth.Permission
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.ID, &p.Name, &p.Scope, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
