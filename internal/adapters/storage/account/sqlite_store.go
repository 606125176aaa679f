package account

import (
	"context"
	"database/sql"

	"parker/internal/adapters/storage"
	domain "parker/internal/domain/account"
)

const accountColumns = `id, user_id, type, provider, provider_account_id, refresh_token, access_token,
	expires_at, token_type, scope, id_token, session_state, refresh_token_expires_in`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByProvider finds the link for a provider identity.
// PRE: provider and providerAccountID are non-empty
// POST: Returns the account or domain.ErrNotFound
func (s *SQLiteStore) GetByProvider(ctx context.Context, provider, providerAccountID string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM account WHERE provider = ? AND provider_account_id = ?",
		provider, providerAccountID)

	var a domain.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.Provider, &a.ProviderAccountID, &a.RefreshToken, &a.AccessToken,
		&a.ExpiresAt, &a.TokenType, &a.Scope, &a.IDToken, &a.SessionState, &a.RefreshTokenExpiresIn)
	if err == sql.ErrNoRows {
		return domain.Account{}, domain.ErrNotFound
	}
	return a, err
}

// Create inserts a provider link.
// PRE: a has been validated and a.UserID exists
// POST: Link is persisted; an existing provider identity yields domain.ErrAlreadyLinked
func (s *SQLiteStore) Create(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO account ("+accountColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.UserID, a.Type, a.Provider, a.ProviderAccountID, a.RefreshToken, a.AccessToken,
		a.ExpiresAt, a.TokenType, a.Scope, a.IDToken, a.SessionState, a.RefreshTokenExpiresIn)
	if storage.IsUniqueViolation(err) {
		return domain.ErrAlreadyLinked
	}
	return err
}
