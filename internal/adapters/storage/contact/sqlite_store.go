package contact

import (
	"context"

	"parker/internal/adapters/storage"
	domain "parker/internal/domain/contact"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.Querier
}

// NewSQLiteStore creates a new contact message store.
func NewSQLiteStore(db storage.Querier) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save inserts a message.
// PRE: m has been validated
func (s *SQLiteStore) Save(ctx context.Context, m domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO contact_message (id, name, email, subject, body, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		m.ID, m.Name, m.Email, m.Subject, m.Body, storage.FormatTime(m.CreatedAt))
	return err
}

// ListRecent returns up to limit messages, newest first.
// PRE: limit > 0
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, subject, body, created_at FROM contact_message ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = storage.ParseTime(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
