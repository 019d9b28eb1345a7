package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warden-api/warden/internal/auth"
)

type sessionStore struct{ db *sql.DB }

// Replace hard-deletes any session rows for the user and inserts the new one
// atomically, keeping at most one live session per user.
func (s *sessionStore) Replace(ctx context.Context, sess *auth.RefreshSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`delete from refresh_sessions where user_id=$1`, sess.UserID); err != nil {
		return err
	}
	if err := tx.QueryRowContext(ctx, `
		insert into refresh_sessions(id, user_id, token_hash)
		values($1,$2,$3)
		returning created_at, updated_at
	`, sess.ID, sess.UserID, sess.TokenHash).Scan(&sess.CreatedAt, &sess.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sessionStore) Find(ctx context.Context, userID string) (*auth.RefreshSession, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, user_id, token_hash, created_at, updated_at
		from refresh_sessions where user_id=$1
	`, userID)
	var sess auth.RefreshSession
	if err := row.Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrNotFound
		}
		return nil, err
	}
	return &sess, nil
}

func (s *sessionStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `delete from refresh_sessions where user_id=$1`, userID)
	return err
}
