package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ExpiredDeleter removes rows whose expiry has passed.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PurgeDeps holds dependencies for PurgeExpired. Wizards is optional.
type PurgeDeps struct {
	Sessions ExpiredDeleter
	Tokens   ExpiredDeleter
	Wizards  interface{ Sweep() int }
	Now      func() time.Time
}

// PurgeResult counts what was removed.
type PurgeResult struct {
	Sessions int64
	Tokens   int64
	Wizards  int
}

// ExecutePurgeExpired deletes expired login sessions, verification codes and idle wizards.
// POST: both tables were attempted even if one failed
func ExecutePurgeExpired(ctx context.Context, deps PurgeDeps) (PurgeResult, error) {
	now := deps.Now()
	var res PurgeResult
	var errs []error

	n, err := deps.Sessions.DeleteExpired(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	res.Sessions = n

	n, err = deps.Tokens.DeleteExpired(ctx, now)
	if err != nil {
		errs = append(errs, err)
	}
	res.Tokens = n

	if deps.Wizards != nil {
		res.Wizards = deps.Wizards.Sweep()
	}

	slog.Info("maintenance_event", "event", "purge_expired", "sessions", res.Sessions, "tokens", res.Tokens, "wizards", res.Wizards)
	return res, errors.Join(errs...)
}
