package session

import (
	"context"
	"database/sql"
	"time"

	"parker/internal/adapters/storage"
	domain "parker/internal/domain/session"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new session store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get looks a session up by token. Expired rows are returned as-is; callers decide.
// POST: Returns the session or domain.ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, token string) (domain.Session, error) {
	var sess domain.Session
	var expires string
	err := s.db.QueryRowContext(ctx,
		"SELECT session_token, user_id, expires FROM session WHERE session_token = ?", token).
		Scan(&sess.Token, &sess.UserID, &expires)
	if err == sql.ErrNoRows {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	sess.Expires, err = storage.ParseTime(expires)
	return sess, err
}

// Create inserts a session.
// PRE: sess.UserID exists
func (s *SQLiteStore) Create(ctx context.Context, sess domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO session (session_token, user_id, expires) VALUES (?, ?, ?)",
		sess.Token, sess.UserID, storage.FormatTime(sess.Expires))
	return err
}

// UpdateExpires moves a session's expiry.
// POST: Returns domain.ErrNotFound when no row matched
func (s *SQLiteStore) UpdateExpires(ctx context.Context, token string, expires time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE session SET expires = ? WHERE session_token = ?", storage.FormatTime(expires), token)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a session. Deleting a missing token is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE session_token = ?", token)
	return err
}

// DeleteExpired removes every session whose expiry is at or before now.
// POST: Returns the number of rows removed
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM session WHERE expires <= ?", storage.FormatTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
