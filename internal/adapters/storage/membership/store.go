package membership

import (
	"context"

	domain "parker/internal/domain/membership"
)

// Store persists membership applications.
type Store interface {
	Create(ctx context.Context, a domain.Application) error
	GetByID(ctx context.Context, id string) (domain.Application, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Application, error)
	CountByTier(ctx context.Context) (map[string]int, error)
}
