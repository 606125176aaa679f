package verification

import (
	"context"
	"time"

	domain "parker/internal/domain/verification"
)

// Store persists one-time verification codes.
type Store interface {
	Get(ctx context.Context, identifier, token string) (domain.Token, error)
	Create(ctx context.Context, t domain.Token) error
	Delete(ctx context.Context, identifier, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
