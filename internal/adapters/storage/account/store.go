package account

import (
	"context"

	domain "parker/internal/domain/account"
)

// Store persists provider links.
type Store interface {
	GetByProvider(ctx context.Context, provider, providerAccountID string) (domain.Account, error)
	Create(ctx context.Context, a domain.Account) error
}
