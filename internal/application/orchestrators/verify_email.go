package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"parker/internal/domain/user"
	"parker/internal/domain/verification"
)

// VerificationStore defines the token persistence used by VerifyEmail.
type VerificationStore interface {
	Get(ctx context.Context, identifier, token string) (verification.Token, error)
	Delete(ctx context.Context, identifier, token string) error
}

// UserUpdater loads and saves users by email.
type UserUpdater interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Update(ctx context.Context, u user.User) error
}

// VerifyEmailInput carries the address and the emailed code.
type VerifyEmailInput struct {
	Email string
	Code  string
}

// VerifyEmailDeps holds dependencies for VerifyEmail.
type VerifyEmailDeps struct {
	Tokens VerificationStore
	Users  UserUpdater
	Now    func() time.Time
}

// ExecuteVerifyEmail redeems a verification code.
// PRE: none
// POST: on success the user is verified and the code is deleted
// INVARIANT: a code can be redeemed at most once
func ExecuteVerifyEmail(ctx context.Context, input VerifyEmailInput, deps VerifyEmailDeps) error {
	email := user.NormalizeEmail(input.Email)
	code := strings.TrimSpace(input.Code)
	if email == "" || code == "" {
		return verification.ErrNotFound
	}

	tok, err := deps.Tokens.Get(ctx, email, code)
	if err != nil {
		return err
	}
	now := deps.Now()
	if tok.IsExpired(now) {
		_ = deps.Tokens.Delete(ctx, email, code)
		return verification.ErrExpired
	}

	u, err := deps.Users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		_ = deps.Tokens.Delete(ctx, email, code)
		return verification.ErrNotFound
	}
	if err != nil {
		return err
	}

	u.MarkVerified(now)
	if err := deps.Users.Update(ctx, u); err != nil {
		return err
	}
	if err := deps.Tokens.Delete(ctx, email, code); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "email_verified", "user_id", u.ID)
	return nil
}
