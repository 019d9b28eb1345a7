package pg

import (
	"context"
	"database/sql"

	"github.com/warden-api/warden/internal/auth"
	"github.com/warden-api/warden/internal/ids"
)

type permissionStore struct{ db *sql.DB }

// Ensure inserts any catalog entries not present yet. Existing (name, scope)
// pairs are left untouched.
func (s *permissionStore) Ensure(ctx context.Context, perms []auth.Permission) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range perms {
		id := p.ID
		if id == "" {
			id = ids.New()
		}
		if _, err := tx.ExecContext(ctx, `
			insert into permissions(id, name, scope, description)
			values($1,$2,$3,$4)
			on conflict (name, scope) do nothing
		`, id, p.Name, p.Scope, p.Description); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *permissionStore) List(ctx context.Context) ([]auth.Permission, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, scope, description, created_at
		from permissions
		order by scope asc, name asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func (s *permissionStore) FindByIDs(ctx context.Context, permIDs []string) ([]auth.Permission, error) {
	if len(permIDs) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, name, scope, description, created_at
		from permissions
		where id = any($1)
		order by scope asc, name asc
	`, permIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func scanPermissions(rows *sql.Rows) ([]auth.Permission, error) {
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
