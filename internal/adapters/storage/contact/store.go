package contact

import (
	"context"

	domain "parker/internal/domain/contact"
)

// Store persists contact form messages.
type Store interface {
	Save(ctx context.Context, m domain.Message) error
	ListRecent(ctx context.Context, limit int) ([]domain.Message, error)
}
