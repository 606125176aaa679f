package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parker/internal/adapters/storage"
	domain "parker/internal/domain/user"
)

// ErrEmailTaken is returned when a user with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

const userColumns = "id, name, email, password, image, role, email_verified, created_at, updated_at"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new user store. db may be a *sql.DB, a *sql.Tx or a TimedDB.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a User with its accounts and sessions.
// PRE: id is non-empty
// POST: Returns the user or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return s.withRelations(ctx, row)
}

// GetByEmail retrieves a User by normalised email with its accounts and sessions.
// PRE: email is non-empty
// POST: Returns the user or domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", domain.NormalizeEmail(email))
	return s.withRelations(ctx, row)
}

func (s *SQLiteStore) withRelations(ctx context.Context, row *sql.Row) (domain.User, error) {
	u, err := scanUser(row.Scan)
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	if u.Accounts, err = s.accounts(ctx, u.ID); err != nil {
		return domain.User{}, err
	}
	if u.Sessions, err = s.sessions(ctx, u.ID); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *SQLiteStore) accounts(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, provider, provider_account_id, type FROM account WHERE user_id = ? ORDER BY provider", userID)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID, &a.Provider, &a.ProviderAccountID, &a.Type); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) sessions(ctx context.Context, userID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_token, expires FROM session WHERE user_id = ? ORDER BY expires DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var sess domain.Session
		var expires string
		if err := rows.Scan(&sess.Token, &expires); err != nil {
			return nil, err
		}
		sess.Expires, _ = storage.ParseTime(expires)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Create inserts a new User.
// PRE: u has been validated
// POST: User is persisted; a duplicate email yields ErrEmailTaken
func (s *SQLiteStore) Create(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Name, domain.NormalizeEmail(u.Email), u.PasswordHash, u.Image, u.Role,
		storage.FormatTime(u.EmailVerified), storage.FormatTime(u.CreatedAt), storage.FormatTime(u.UpdatedAt))
	if storage.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

// Update overwrites the editable fields of an existing User.
// PRE: u.ID exists
// POST: name, email, password, image, role, email_verified and updated_at are replaced
func (s *SQLiteStore) Update(ctx context.Context, u domain.User) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password = ?, image = ?, role = ?, email_verified = ?, updated_at = ?
		 WHERE id = ?`,
		u.Name, domain.NormalizeEmail(u.Email), u.PasswordHash, u.Image, u.Role,
		storage.FormatTime(u.EmailVerified), storage.FormatTime(u.UpdatedAt), u.ID)
	if storage.IsUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Count returns the total number of users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// scanUser extracts a User from a row scanner function.
func scanUser(scan func(dest ...any) error) (domain.User, error) {
	var u domain.User
	var verified, createdAt, updatedAt string
	err := scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Image, &u.Role, &verified, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, err
	}
	u.EmailVerified, _ = storage.ParseTime(verified)
	u.CreatedAt, _ = storage.ParseTime(createdAt)
	u.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return u, nil
}
