// Package wizard keeps in-progress registrations between requests. Sessions are keyed by an
// opaque token carried in a cookie and are never written to the SQL database.
package wizard

import (
	"context"
	"errors"
	"time"

	"parker/internal/domain/credential"
	domain "parker/internal/domain/wizard"
)

// DefaultTTL is how long an untouched registration is kept.
const DefaultTTL = 2 * time.Hour

// Store errors
var (
	ErrNotFound = errors.New("registration session not found")
	ErrConflict = errors.New("registration session changed concurrently")
)

// Store holds wizard sessions.
type Store interface {
	// Create saves a new session and returns its id.
	Create(ctx context.Context, s *domain.Session) (string, error)

	// Get returns a copy of the session.
	// POST: Returns ErrNotFound for unknown or expired ids
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Update runs fn against the current session and saves the result atomically.
	// fn may run more than once when another writer races it; a non-nil error from fn
	// discards its changes and is returned unchanged.
	Update(ctx context.Context, id string, fn func(s *domain.Session) error) error

	// Delete removes the session. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

func newID() (string, error) {
	return credential.GenerateToken(24)
}
