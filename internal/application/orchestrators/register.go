package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	emailAdapter "parker/internal/adapters/email"
	"parker/internal/adapters/payment"
	"parker/internal/adapters/storage"
	accountStore "parker/internal/adapters/storage/account"
	membershipStore "parker/internal/adapters/storage/membership"
	outboxStore "parker/internal/adapters/storage/outbox"
	userStore "parker/internal/adapters/storage/user"
	verificationStore "parker/internal/adapters/storage/verification"
	"parker/internal/domain/account"
	"parker/internal/domain/credential"
	"parker/internal/domain/membership"
	domainOutbox "parker/internal/domain/outbox"
	"parker/internal/domain/tier"
	"parker/internal/domain/user"
	"parker/internal/domain/verification"
	"parker/internal/domain/wizard"
)

// ErrEmailAlreadyExists is returned when a registration uses an email that already has a user.
var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// RegisterTxStores are the stores a registration writes, all bound to one transaction.
type RegisterTxStores struct {
	Users interface {
		Create(ctx context.Context, u user.User) error
	}
	Accounts interface {
		Create(ctx context.Context, a account.Account) error
	}
	Applications interface {
		Create(ctx context.Context, a membership.Application) error
	}
	Tokens interface {
		Create(ctx context.Context, t verification.Token) error
	}
	Outbox OutboxSaver
}

// UserLookup finds users by email.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// RegisterDeps holds dependencies for Register.
type RegisterDeps struct {
	Users      UserLookup
	RunInTx    func(ctx context.Context, fn func(s RegisterTxStores) error) error
	Payments   payment.Processor
	Outbox     OutboxSaver
	Sender     emailAdapter.Sender
	BaseURL    string
	GenerateID func() string
	Now        func() time.Time
}

// RegisterResult identifies what a registration created.
type RegisterResult struct {
	UserID           string
	ApplicationID    string
	PaymentReference string
}

// SQLRegisterTx binds the registration stores to a transaction on db.
func SQLRegisterTx(db storage.SQLDB) func(ctx context.Context, fn func(s RegisterTxStores) error) error {
	return func(ctx context.Context, fn func(s RegisterTxStores) error) error {
		return storage.WithTx(ctx, db, func(q storage.Querier) error {
			return fn(RegisterTxStores{
				Users:        userStore.NewSQLiteStore(q),
				Accounts:     accountStore.NewSQLiteStore(q),
				Applications: membershipStore.NewSQLiteStore(q),
				Tokens:       verificationStore.NewSQLiteStore(q),
				Outbox:       outboxStore.NewSQLiteStore(q),
			})
		})
	}
}

// ExecuteRegister turns a completed wizard payload into a user with a pending membership.
// Payment is authorised first; then the user, its credentials link, the application, a
// verification code and the welcome email are written in one transaction. Delivery of the
// email is attempted after commit and left to the outbox worker if it fails.
// PRE: p passed all three stage schemas
// POST: on success every row exists; on error none do
// INVARIANT: card data is never persisted
func ExecuteRegister(ctx context.Context, p wizard.Payload, deps RegisterDeps) (RegisterResult, error) {
	opt, ok := tier.Get(p.SelectedTier)
	if !ok {
		return RegisterResult{}, membership.ErrUnknownTier
	}
	email := user.NormalizeEmail(p.Email)

	if _, err := deps.Users.GetByEmail(ctx, email); err == nil {
		slog.Info("registration_event", "event", "rejected", "reason", "email_exists")
		return RegisterResult{}, ErrEmailAlreadyExists
	} else if !errors.Is(err, user.ErrNotFound) {
		return RegisterResult{}, fmt.Errorf("check existing user: %w", err)
	}

	now := deps.Now()
	u := user.User{
		ID:        deps.GenerateID(),
		Name:      strings.TrimSpace(p.Name),
		Email:     email,
		Role:      user.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.SetPassword(p.Password); err != nil {
		return RegisterResult{}, err
	}
	if err := u.Validate(); err != nil {
		return RegisterResult{}, err
	}

	charge, err := deps.Payments.Authorize(ctx, payment.Charge{
		AmountCents: opt.PriceCents(),
		Currency:    "usd",
		Description: CompanyName + " " + opt.Name + " membership",
		Email:       email,
		Card: payment.Card{
			Number:         p.CardNumber,
			Expiry:         p.ExpiryDate,
			CVV:            p.CVV,
			CardholderName: p.CardholderName,
		},
	})
	if err != nil {
		return RegisterResult{}, fmt.Errorf("authorize payment: %w", err)
	}

	app := membership.Application{
		ID:               deps.GenerateID(),
		UserID:           u.ID,
		Tier:             opt.ID,
		Education:        p.Education,
		Experience:       p.Experience,
		Skills:           p.Skills,
		Motivation:       p.Motivation,
		PaymentReference: charge.Reference,
		PaymentStatus:    charge.Status,
		CreatedAt:        now,
	}
	if err := app.Validate(); err != nil {
		return RegisterResult{}, err
	}

	code, err := credential.GenerateVerificationCode()
	if err != nil {
		return RegisterResult{}, err
	}
	html, err := renderEmail("welcome", map[string]string{
		"Name":      u.Name,
		"TierName":  opt.Name,
		"Price":     opt.Price(),
		"Company":   CompanyName,
		"Code":      code,
		"VerifyURL": strings.TrimRight(deps.BaseURL, "/") + "/verify?email=" + url.QueryEscape(email),
	})
	if err != nil {
		return RegisterResult{}, err
	}

	var welcome domainOutbox.Entry
	err = deps.RunInTx(ctx, func(s RegisterTxStores) error {
		if err := s.Users.Create(ctx, u); err != nil {
			if errors.Is(err, userStore.ErrEmailTaken) {
				return ErrEmailAlreadyExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.Accounts.Create(ctx, account.NewCredentials(deps.GenerateID(), u.ID, email)); err != nil {
			return fmt.Errorf("link credentials: %w", err)
		}
		if err := s.Applications.Create(ctx, app); err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		if err := s.Tokens.Create(ctx, verification.New(email, code, now)); err != nil {
			return fmt.Errorf("create verification token: %w", err)
		}
		welcome, err = enqueueEmail(ctx, s.Outbox, deps.GenerateID(), domainOutbox.EmailPayload{
			To:      []string{email},
			Subject: "Welcome to " + CompanyName + ", confirm your email",
			HTML:    html,
		}, now)
		return err
	})
	if err != nil {
		slog.Error("registration_event", "event", "failed", "tier", opt.ID, "payment_reference", charge.Reference, "error", err)
		return RegisterResult{}, err
	}

	slog.Info("registration_event", "event", "registered", "user_id", u.ID, "tier", opt.ID, "payment_reference", charge.Reference)

	if err := deliverEntry(ctx, welcome, deps.Outbox, deps.Sender, deps.Now()); err != nil {
		slog.Warn("registration_event", "event", "welcome_email_deferred", "user_id", u.ID, "error", err)
	}

	return RegisterResult{UserID: u.ID, ApplicationID: app.ID, PaymentReference: charge.Reference}, nil
}

// Registrar adapts ExecuteRegister to the wizard's submission collaborator.
type Registrar struct {
	Deps RegisterDeps
}

// Submit registers the payload.
func (r Registrar) Submit(ctx context.Context, p wizard.Payload) error {
	_, err := ExecuteRegister(ctx, p, r.Deps)
	return err
}
