package session

import (
	"context"
	"time"

	domain "parker/internal/domain/session"
)

// Store persists login sessions.
type Store interface {
	Get(ctx context.Context, token string) (domain.Session, error)
	Create(ctx context.Context, s domain.Session) error
	UpdateExpires(ctx context.Context, token string, expires time.Time) error
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
