package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parker/internal/adapters/payment"
	"parker/internal/domain/account"
	"parker/internal/domain/credential"
	domainOutbox "parker/internal/domain/outbox"
	"parker/internal/domain/user"
)

// TestExecuteRegister_CreatesEverything checks one registration writes every row.
func TestExecuteRegister_CreatesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := ExecuteRegister(ctx, validPayload(), env.registerDeps())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.PaymentReference, "stub-"))

	u, err := env.users.GetByEmail(ctx, "jo@parker.dev")
	require.NoError(t, err)
	assert.Equal(t, res.UserID, u.ID)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.False(t, u.IsVerified())
	assert.True(t, credential.VerifyPassword(u.PasswordHash, "abcdefgh"))
	require.Len(t, u.Accounts, 1)
	assert.Equal(t, account.ProviderCredentials, u.Accounts[0].Provider)

	app, err := env.applications.GetByID(ctx, res.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, "average", app.Tier)
	assert.Equal(t, "stubbed", app.PaymentStatus)

	assert.EqualValues(t, 5000, env.payments.charge.AmountCents)
	assert.Equal(t, 1, env.count(t, "verification_token"))

	sent := env.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"jo@parker.dev"}, sent[0].To)
	assert.Contains(t, sent[0].HTML, "https://parker.dev/verify?email=jo%40parker.dev")

	var code string
	require.NoError(t, env.db.QueryRow("SELECT token FROM verification_token").Scan(&code))
	assert.Contains(t, sent[0].HTML, code)

	pending, err := env.outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "welcome email was delivered immediately")
}

// TestExecuteRegister_CardDataNotStored checks no column holds the card number or CVV.
func TestExecuteRegister_CardDataNotStored(t *testing.T) {
	env := newTestEnv(t)
	_, err := ExecuteRegister(context.Background(), validPayload(), env.registerDeps())
	require.NoError(t, err)

	var hits int
	for _, q := range []string{
		"SELECT COUNT(*) FROM membership_application WHERE payment_reference LIKE '%4242%' OR education LIKE '%4242%'",
		"SELECT COUNT(*) FROM outbox WHERE payload LIKE '%4242 4242%'",
	} {
		var n int
		require.NoError(t, env.db.QueryRow(q).Scan(&n))
		hits += n
	}
	assert.Zero(t, hits)
}

func TestExecuteRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := ExecuteRegister(ctx, validPayload(), env.registerDeps())
	require.NoError(t, err)

	_, err = ExecuteRegister(ctx, validPayload(), env.registerDeps())
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assert.Equal(t, 1, env.payments.calls, "no second charge for a duplicate")
	assert.Equal(t, 1, env.count(t, "users"))
}

// TestExecuteRegister_RollsBackOnFailure checks a failing write leaves no partial registration.
func TestExecuteRegister_RollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	deps := env.registerDeps()
	inner := deps.RunInTx
	deps.RunInTx = func(ctx context.Context, fn func(s RegisterTxStores) error) error {
		return inner(ctx, func(s RegisterTxStores) error {
			s.Outbox = saverFunc(func(context.Context, domainOutbox.Entry) error { return errors.New("disk full") })
			return fn(s)
		})
	}

	_, err := ExecuteRegister(context.Background(), validPayload(), deps)
	require.Error(t, err)
	for _, table := range []string{"users", "account", "membership_application", "verification_token", "outbox"} {
		assert.Zero(t, env.count(t, table), table)
	}
}

func TestExecuteRegister_PaymentDeclined(t *testing.T) {
	env := newTestEnv(t)
	env.payments.err = payment.ErrDeclined

	_, err := ExecuteRegister(context.Background(), validPayload(), env.registerDeps())
	assert.ErrorIs(t, err, payment.ErrDeclined)
	assert.Zero(t, env.count(t, "users"))
}

// TestExecuteRegister_EmailDeferred checks a provider outage leaves the email for the worker.
func TestExecuteRegister_EmailDeferred(t *testing.T) {
	env := newTestEnv(t)
	deps := env.registerDeps()
	deps.Sender = &failingSender{}

	_, err := ExecuteRegister(context.Background(), validPayload(), deps)
	require.NoError(t, err)

	pending, err := env.outbox.ListPending(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Equal(t, "provider unavailable", pending[0].ErrorMessage)
}

func TestExecuteRegister_UnknownTier(t *testing.T) {
	env := newTestEnv(t)
	p := validPayload()
	p.SelectedTier = "platinum"
	_, err := ExecuteRegister(context.Background(), p, env.registerDeps())
	assert.Error(t, err)
	assert.Zero(t, env.payments.calls)
}

type saverFunc func(ctx context.Context, e domainOutbox.Entry) error

func (f saverFunc) Save(ctx context.Context, e domainOutbox.Entry) error { return f(ctx, e) }
