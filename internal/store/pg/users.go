package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warden-api/warden/internal/auth"
)

type userStore struct{ db *sql.DB }

const userColumns = `id, username, password_hash, status, role_id, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	return s.db.QueryRowContext(ctx, `
		insert into users(id, username, password_hash, status, role_id)
		values($1,$2,$3,$4,$5)
		returning created_at, updated_at
	`, u.ID, u.Username, u.PasswordHash, u.Status, u.RoleID).Scan(&u.CreatedAt, &u.UpdatedAt)
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1 and deleted_at is null`, id)
	return scanUser(row)
}

func (s *userStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=$1 and deleted_at is null`, username)
	return scanUser(row)
}

func (s *userStore) FindWithRole(ctx context.Context, id string) (*auth.User, *auth.Role, error) {
	row := s.db.QueryRowContext(ctx, `
		select u.id, u.username, u.password_hash, u.status, u.role_id, u.created_at, u.updated_at,
		       r.id, r.name, r.status, r.created_at, r.updated_at
		from users u
		left join roles r on r.id = u.role_id and r.deleted_at is null
		where u.id=$1 and u.deleted_at is null
	`, id)
	var (
		u         auth.User
		roleID    sql.NullString
		roleName  sql.NullString
		roleState sql.NullString
		roleCr    sql.NullTime
		roleUp    sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Status, &u.RoleID, &u.CreatedAt, &u.UpdatedAt,
		&roleID, &roleName, &roleState, &roleCr, &roleUp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !roleID.Valid {
		return &u, nil, nil
	}
	role := &auth.Role{
		ID:        roleID.String,
		Name:      roleName.String,
		Status:    roleState.String,
		CreatedAt: roleCr.Time,
		UpdatedAt: roleUp.Time,
	}
	role.Permissions, err = rolePermissions(ctx, s.db, role.ID)
	if err != nil {
		return nil, nil, err
	}
	return &u, role, nil
}

func (s *userStore) List(ctx context.Context, limit, offset int) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+` from users
		where deleted_at is null
		order by created_at asc, id asc
		limit $1 offset $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*auth.User
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Status, &u.RoleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, &u)
	}
	return res, rows.Err()
}

func (s *userStore) Update(ctx context.Context, u *auth.User) error {
	err := s.db.QueryRowContext(ctx, `
		update users
		set username=$2, password_hash=$3, status=$4, role_id=$5, updated_at=now()
		where id=$1 and deleted_at is null
		returning updated_at
	`, u.ID, u.Username, u.PasswordHash, u.Status, u.RoleID).Scan(&u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrNotFound
	}
	return err
}

func (s *userStore) SoftDelete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`update users set deleted_at=now() where id=$1 and deleted_at is null`, id)
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
	if _, err := tx.ExecContext(ctx, `delete from refresh_sessions where user_id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func scanUser(row *sql.Row) (*auth.User, error) {
	var u auth.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Status, &u.RoleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
