package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	emailAdapter "parker/internal/adapters/email"
	"parker/internal/adapters/http/perf"
	"parker/internal/adapters/payment"
	"parker/internal/adapters/storage"
	accountStore "parker/internal/adapters/storage/account"
	contactStore "parker/internal/adapters/storage/contact"
	membershipStore "parker/internal/adapters/storage/membership"
	outboxStore "parker/internal/adapters/storage/outbox"
	sessionStore "parker/internal/adapters/storage/session"
	userStore "parker/internal/adapters/storage/user"
	verificationStore "parker/internal/adapters/storage/verification"
	wizardStore "parker/internal/adapters/storage/wizard"
	"parker/internal/application/orchestrators"
	"parker/internal/application/projections"
	"parker/internal/config"
)

// app holds the process-wide resources built from config.
type app struct {
	cfg       *config.Config
	db        *storage.TimedDB
	redis     *redis.Client
	collector *perf.Collector

	users    *userStore.SQLiteStore
	accounts *accountStore.SQLiteStore
	sessions *sessionStore.SQLiteStore
	tokens   *verificationStore.SQLiteStore
	outbox   *outboxStore.SQLiteStore
	contacts *contactStore.SQLiteStore

	wizards orchestrators.WizardStore
	// memWizards is set only when sessions live in process memory and need sweeping.
	memWizards *wizardStore.MemoryStore
	sender     emailAdapter.Sender
}

// openApp opens the database, creates the schema and builds every store.
// POST: caller must call close
func openApp(ctx context.Context, cfg *config.Config) (*app, error) {
	raw, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := storage.InitDB(ctx, raw); err != nil {
		raw.Close()
		return nil, err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	db := storage.NewTimedDB(raw, collector, time.Duration(cfg.Database.SlowQueryMs)*time.Millisecond)

	a := &app{
		cfg:       cfg,
		db:        db,
		collector: collector,
		users:     userStore.NewSQLiteStore(db),
		accounts:  accountStore.NewSQLiteStore(db),
		sessions:  sessionStore.NewSQLiteStore(db),
		tokens:    verificationStore.NewSQLiteStore(db),
		outbox:    outboxStore.NewSQLiteStore(db),
		contacts:  contactStore.NewSQLiteStore(db),
		sender:    emailAdapter.New(cfg.Email.ResendKey, cfg.Email.From),
	}

	if cfg.Redis.Addr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		a.wizards = wizardStore.NewRedisStore(a.redis, cfg.Wizard.SessionTTL)
		slog.Info("config_event", "event", "wizard_store", "kind", "redis", "addr", cfg.Redis.Addr)
	} else {
		a.memWizards = wizardStore.NewMemoryStore(cfg.Wizard.SessionTTL)
		a.wizards = a.memWizards
		slog.Info("config_event", "event", "wizard_store", "kind", "memory")
	}

	if cfg.Email.ResendKey == "" {
		if cfg.IsProduction() {
			slog.Warn("config_event", "event", "email_disabled", "hint", "PARKER_RESEND_KEY is not set, email delivery is disabled")
		} else {
			slog.Info("config_event", "event", "email_noop", "hint", "set PARKER_RESEND_KEY for real delivery")
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("redis_close_failed", "error", err)
		}
	}
	if err := a.db.Close(); err != nil {
		slog.Warn("db_close_failed", "error", err)
	}
}

func (a *app) registerDeps() orchestrators.RegisterDeps {
	return orchestrators.RegisterDeps{
		Users:      a.users,
		RunInTx:    orchestrators.SQLRegisterTx(a.db),
		Payments:   payment.NewStubProcessor(),
		Outbox:     a.outbox,
		Sender:     a.sender,
		BaseURL:    a.cfg.Server.BaseURL,
		GenerateID: uuid.NewString,
		Now:        time.Now,
	}
}

func (a *app) outboxRetryDeps() orchestrators.OutboxRetryDeps {
	return orchestrators.OutboxRetryDeps{
		OutboxStore: a.outbox,
		Sender:      a.sender,
		Now:         time.Now,
		BaseDelay:   a.cfg.Outbox.BaseDelay,
		MaxDelay:    a.cfg.Outbox.MaxDelay,
		BatchSize:   50,
	}
}

func (a *app) purgeDeps() orchestrators.PurgeDeps {
	deps := orchestrators.PurgeDeps{
		Sessions: a.sessions,
		Tokens:   a.tokens,
		Now:      time.Now,
	}
	// wizard keys in Redis expire on their own
	if a.memWizards != nil {
		deps.Wizards = a.memWizards
	}
	return deps
}

func (a *app) adminDeps() projections.GetAdminOverviewDeps {
	return projections.GetAdminOverviewDeps{
		Users:        a.users,
		Applications: membershipStore.NewSQLiteStore(a.db),
		Contacts:     a.contacts,
		Outbox:       a.outbox,
	}
}

func (a *app) seedAdminDeps() orchestrators.SeedAdminDeps {
	return orchestrators.SeedAdminDeps{
		Users:      a.users,
		Accounts:   a.accounts,
		GenerateID: uuid.NewString,
		Now:        time.Now,
	}
}
