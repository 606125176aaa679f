package verification

import (
	"context"
	"database/sql"
	"time"

	"parker/internal/adapters/storage"
	domain "parker/internal/domain/verification"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new verification token store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get finds a token by its identifier and value.
// POST: Returns the token or domain.ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, identifier, token string) (domain.Token, error) {
	var t domain.Token
	var expires string
	err := s.db.QueryRowContext(ctx,
		"SELECT identifier, token, expires FROM verification_token WHERE identifier = ? AND token = ?",
		identifier, token).Scan(&t.Identifier, &t.Token, &expires)
	if err == sql.ErrNoRows {
		return domain.Token{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Token{}, err
	}
	t.Expires, err = storage.ParseTime(expires)
	return t, err
}

// Create stores a token. Issuing the same code twice for an identifier refreshes its expiry.
func (s *SQLiteStore) Create(ctx context.Context, t domain.Token) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO verification_token (identifier, token, expires) VALUES (?, ?, ?)
		 ON CONFLICT(identifier, token) DO UPDATE SET expires = excluded.expires`,
		t.Identifier, t.Token, storage.FormatTime(t.Expires))
	return err
}

// Delete removes a token once it has been used.
func (s *SQLiteStore) Delete(ctx context.Context, identifier, token string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM verification_token WHERE identifier = ? AND token = ?", identifier, token)
	return err
}

// DeleteExpired removes tokens whose expiry is at or before now.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM verification_token WHERE expires <= ?", storage.FormatTime(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
