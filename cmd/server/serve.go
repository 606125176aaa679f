package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	web "parker/internal/adapters/http"
	"parker/internal/application/orchestrators"
	"parker/internal/application/scheduler"
)

const shutdownTimeout = 15 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}
}

// serve runs the HTTP server and the scheduler until ctx is cancelled.
// POST: the database is closed after both have stopped
func (c *cli) serve(ctx context.Context) error {
	cfg := c.cfg
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}

	handler, err := web.NewMux(web.Deps{
		Wizard: orchestrators.WizardDeps{Sessions: a.wizards},
		Submit: orchestrators.SubmitWizardDeps{
			Sessions:  a.wizards,
			Submitter: orchestrators.Registrar{Deps: a.registerDeps()},
			Now:       time.Now,
		},
		Contact: orchestrators.ContactDeps{
			Messages:   a.contacts,
			Outbox:     a.outbox,
			Sender:     a.sender,
			Inbox:      cfg.Email.ContactInbox,
			GenerateID: uuid.NewString,
			Now:        time.Now,
		},
		Admin:            a.adminDeps(),
		Login:            orchestrators.LoginDeps{Users: a.users, Sessions: a.sessions, Now: time.Now},
		Resolve:          orchestrators.ResolveSessionDeps{Sessions: a.sessions, Users: a.users, Now: time.Now},
		Verify:           orchestrators.VerifyEmailDeps{Tokens: a.tokens, Users: a.users, Now: time.Now},
		DB:               a.db,
		Collector:        a.collector,
		CSRFKey:          csrfKey,
		Secure:           cfg.IsProduction(),
		TrustedOrigins:   trustedOrigins(cfg.Server.BaseURL),
		CORSOrigins:      cfg.Server.CORSOrigins,
		RateLimit:        cfg.Server.RateLimit,
		SlowRequestMs:    cfg.Server.SlowRequestMs,
		StaticDir:        cfg.Server.StaticDir,
		CardPlaceholders: cfg.Wizard.CardPlaceholders,
	})
	if err != nil {
		return fmt.Errorf("build handler: %w", err)
	}

	jobs := scheduler.New()
	if err := jobs.Add("outbox_retry", cfg.Outbox.RetrySchedule, func(ctx context.Context) error {
		res, err := orchestrators.ExecuteOutboxRetry(ctx, a.outboxRetryDeps())
		if res.Processed > 0 {
			slog.Info("outbox_event", "event", "retry_pass", "processed", res.Processed, "succeeded", res.Succeeded, "failed", res.Failed)
		}
		return err
	}); err != nil {
		return err
	}
	if err := jobs.Add("purge_expired", cfg.Outbox.PurgeSchedule, func(ctx context.Context) error {
		res, err := orchestrators.ExecutePurgeExpired(ctx, a.purgeDeps())
		slog.Info("maintenance_event", "event", "purged", "sessions", res.Sessions, "tokens", res.Tokens, "wizards", res.Wizards)
		return err
	}); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server_starting", "version", version, "addr", cfg.Server.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return jobs.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		slog.Info("server_stopping")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// trustedOrigins lists the host of the public base URL for CSRF origin checks.
func trustedOrigins(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}
