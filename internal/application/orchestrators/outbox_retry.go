package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "parker/internal/adapters/email"
	domainOutbox "parker/internal/domain/outbox"
)

// OutboxStoreForRetry defines the store interface needed by the retry worker.
type OutboxStoreForRetry interface {
	ListPending(ctx context.Context, limit int) ([]domainOutbox.Entry, error)
	Save(ctx context.Context, e domainOutbox.Entry) error
}

// OutboxRetryDeps provides the dependencies for retrying outbox entries.
type OutboxRetryDeps struct {
	OutboxStore OutboxStoreForRetry
	Sender      emailAdapter.Sender
	Now         func() time.Time
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	BatchSize   int
}

// OutboxRetryResult summarises one retry pass.
type OutboxRetryResult struct {
	Processed int
	Succeeded int
	Failed    int
	Skipped   int
}

// ExecuteOutboxRetry delivers pending entries whose backoff has elapsed.
// PRE: Deps are valid and store is connected
// POST: Every due entry was attempted once and its outcome saved
func ExecuteOutboxRetry(ctx context.Context, deps OutboxRetryDeps) (OutboxRetryResult, error) {
	baseDelay, maxDelay, batch := deps.BaseDelay, deps.MaxDelay, deps.BatchSize
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	if maxDelay <= 0 {
		maxDelay = time.Hour
	}
	if batch <= 0 {
		batch = 100
	}

	entries, err := deps.OutboxStore.ListPending(ctx, batch)
	if err != nil {
		return OutboxRetryResult{}, fmt.Errorf("failed to list pending outbox entries: %w", err)
	}

	var res OutboxRetryResult
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		now := deps.Now()
		if !entry.CanRetry() || !entry.IsDue(now, baseDelay, maxDelay) {
			res.Skipped++
			continue
		}
		res.Processed++
		if err := deliverEntry(ctx, entry, deps.OutboxStore, deps.Sender, now); err != nil {
			res.Failed++
			continue
		}
		res.Succeeded++
	}

	if res.Processed > 0 {
		slog.Info("outbox_event", "event", "retry_pass", "processed", res.Processed, "succeeded", res.Succeeded,
			"failed", res.Failed, "skipped", res.Skipped)
	}
	return res, nil
}
