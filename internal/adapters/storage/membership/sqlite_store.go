package membership

import (
	"context"
	"database/sql"

	"parker/internal/adapters/storage"
	domain "parker/internal/domain/membership"
)

const applicationColumns = `id, user_id, tier, education, experience, skills, motivation,
	payment_reference, payment_status, created_at`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new membership application store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts an application.
// PRE: a has been validated and a.UserID exists
func (s *SQLiteStore) Create(ctx context.Context, a domain.Application) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO membership_application ("+applicationColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		a.ID, a.UserID, a.Tier, a.Education, a.Experience, a.Skills, a.Motivation,
		a.PaymentReference, a.PaymentStatus, storage.FormatTime(a.CreatedAt))
	return err
}

// GetByID retrieves an application.
// POST: Returns the application or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Application, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+applicationColumns+" FROM membership_application WHERE id = ?", id)
	a, err := scanApplication(row.Scan)
	if err == sql.ErrNoRows {
		return domain.Application{}, domain.ErrNotFound
	}
	return a, err
}

// ListByUser returns a user's applications, newest first.
func (s *SQLiteStore) ListByUser(ctx context.Context, userID string) ([]domain.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+applicationColumns+" FROM membership_application WHERE user_id = ? ORDER BY created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByTier returns how many applications each tier has received.
func (s *SQLiteStore) CountByTier(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tier, COUNT(*) FROM membership_application GROUP BY tier")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

func scanApplication(scan func(dest ...any) error) (domain.Application, error) {
	var a domain.Application
	var createdAt string
	err := scan(&a.ID, &a.UserID, &a.Tier, &a.Education, &a.Experience, &a.Skills, &a.Motivation,
		&a.PaymentReference, &a.PaymentStatus, &createdAt)
	if err != nil {
		return domain.Application{}, err
	}
	a.CreatedAt, _ = storage.ParseTime(createdAt)
	return a, nil
}
