package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parker/internal/domain/account"
	"parker/internal/domain/user"
)

// AdminUserStore is the user persistence needed by SeedAdmin.
type AdminUserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) error
	Update(ctx context.Context, u user.User) error
}

// AdminAccountStore is the provider link persistence needed by SeedAdmin.
type AdminAccountStore interface {
	GetByProvider(ctx context.Context, provider, providerAccountID string) (account.Account, error)
	Create(ctx context.Context, a account.Account) error
}

// SeedAdminInput carries the administrator identity.
type SeedAdminInput struct {
	Email    string
	Name     string
	Password string
}

// SeedAdminDeps holds dependencies for SeedAdmin.
type SeedAdminDeps struct {
	Users      AdminUserStore
	Accounts   AdminAccountStore
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteSeedAdmin creates the administrator, or promotes and re-passwords an existing user.
// Running it twice is harmless.
// PRE: Email is valid; Password is at least 8 characters
// POST: a verified user with role ADMIN and a credentials link exists for Email
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedAdminDeps) (created bool, err error) {
	now := deps.Now()
	email := user.NormalizeEmail(input.Email)

	u, err := deps.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		created = true
		u = user.User{ID: deps.GenerateID(), Email: email, CreatedAt: now}
	case err != nil:
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	if input.Name != "" {
		u.Name = input.Name
	}
	u.Role = user.RoleAdmin
	u.UpdatedAt = now
	u.MarkVerified(now)
	if err := u.SetPassword(input.Password); err != nil {
		return false, err
	}
	if err := u.Validate(); err != nil {
		return false, err
	}

	if created {
		err = deps.Users.Create(ctx, u)
	} else {
		err = deps.Users.Update(ctx, u)
	}
	if err != nil {
		return false, fmt.Errorf("save admin: %w", err)
	}

	if _, err := deps.Accounts.GetByProvider(ctx, account.ProviderCredentials, email); errors.Is(err, account.ErrNotFound) {
		if err := deps.Accounts.Create(ctx, account.NewCredentials(deps.GenerateID(), u.ID, email)); err != nil {
			return false, fmt.Errorf("link admin credentials: %w", err)
		}
	} else if err != nil {
		return false, fmt.Errorf("lookup admin credentials: %w", err)
	}

	slog.Info("auth_event", "event", "admin_seeded", "user_id", u.ID, "created", created)
	return created, nil
}
