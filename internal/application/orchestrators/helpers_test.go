package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	emailAdapter "parker/internal/adapters/email"
	"parker/internal/adapters/payment"
	accountStore "parker/internal/adapters/storage/account"
	contactStore "parker/internal/adapters/storage/contact"
	membershipStore "parker/internal/adapters/storage/membership"
	outboxStore "parker/internal/adapters/storage/outbox"
	sessionStore "parker/internal/adapters/storage/session"
	"parker/internal/adapters/storage/storagetest"
	userStore "parker/internal/adapters/storage/user"
	verificationStore "parker/internal/adapters/storage/verification"
	"parker/internal/domain/wizard"
)

// testEnv wires every SQLite store to one in-memory database.
type testEnv struct {
	db           *sql.DB
	users        *userStore.SQLiteStore
	accounts     *accountStore.SQLiteStore
	applications *membershipStore.SQLiteStore
	tokens       *verificationStore.SQLiteStore
	sessions     *sessionStore.SQLiteStore
	outbox       *outboxStore.SQLiteStore
	contacts     *contactStore.SQLiteStore
	sender       *emailAdapter.NoopSender
	payments     *countingProcessor
	now          time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := storagetest.Open(t)
	return &testEnv{
		db:           db,
		users:        userStore.NewSQLiteStore(db),
		accounts:     accountStore.NewSQLiteStore(db),
		applications: membershipStore.NewSQLiteStore(db),
		tokens:       verificationStore.NewSQLiteStore(db),
		sessions:     sessionStore.NewSQLiteStore(db),
		outbox:       outboxStore.NewSQLiteStore(db),
		contacts:     contactStore.NewSQLiteStore(db),
		sender:       emailAdapter.NewNoopSender(),
		payments:     &countingProcessor{inner: payment.NewStubProcessor()},
		now:          time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) clock() time.Time { return e.now }

func (e *testEnv) registerDeps() RegisterDeps {
	return RegisterDeps{
		Users:      e.users,
		RunInTx:    SQLRegisterTx(e.db),
		Payments:   e.payments,
		Outbox:     e.outbox,
		Sender:     e.sender,
		BaseURL:    "https://parker.dev/",
		GenerateID: uuid.NewString,
		Now:        e.clock,
	}
}

func (e *testEnv) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func validPayload() wizard.Payload {
	return wizard.Payload{
		SelectedTier:    "average",
		Name:            "Jo Lee",
		Email:           "Jo@Parker.dev",
		Password:        "abcdefgh",
		ConfirmPassword: "abcdefgh",
		Education:       "BSc Computer Science",
		Experience:      "Five years of backend work",
		Skills:          "Go, SQL, distributed systems",
		Motivation:      "I want to build real products",
		CardNumber:      "4242 4242 4242 4242",
		ExpiryDate:      "12/34",
		CVV:             "123",
		CardholderName:  "Jo Lee",
	}
}

// countingProcessor records authorisations.
type countingProcessor struct {
	mu     sync.Mutex
	inner  payment.Processor
	calls  int
	charge payment.Charge
	err    error
}

func (p *countingProcessor) Authorize(ctx context.Context, c payment.Charge) (payment.Result, error) {
	p.mu.Lock()
	p.calls++
	p.charge = c
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return payment.Result{}, err
	}
	return p.inner.Authorize(ctx, c)
}

// failingSender rejects every email.
type failingSender struct {
	mu    sync.Mutex
	calls int
}

func (s *failingSender) Send(context.Context, emailAdapter.SendRequest) (emailAdapter.SendResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return emailAdapter.SendResult{}, errors.New("provider unavailable")
}
