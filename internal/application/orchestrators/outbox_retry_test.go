package orchestrators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainOutbox "parker/internal/domain/outbox"
)

func (e *testEnv) enqueue(t *testing.T, id string) {
	t.Helper()
	_, err := enqueueEmail(context.Background(), e.outbox, id, domainOutbox.EmailPayload{
		To:      []string{"jo@parker.dev"},
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	}, e.now)
	require.NoError(t, err)
}

func TestExecuteOutboxRetry_DeliversPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.enqueue(t, "e1")
	env.enqueue(t, "e2")

	res, err := ExecuteOutboxRetry(ctx, OutboxRetryDeps{OutboxStore: env.outbox, Sender: env.sender, Now: env.clock})
	require.NoError(t, err)
	assert.Equal(t, OutboxRetryResult{Processed: 2, Succeeded: 2}, res)
	assert.Len(t, env.sender.Sent(), 2)

	e, err := env.outbox.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domainOutbox.StatusDone, e.Status)
	assert.NotEmpty(t, e.ExternalID)

	res, err = ExecuteOutboxRetry(ctx, OutboxRetryDeps{OutboxStore: env.outbox, Sender: env.sender, Now: env.clock})
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
}

// TestExecuteOutboxRetry_Backoff walks one entry through every attempt until it fails.
func TestExecuteOutboxRetry_Backoff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.enqueue(t, "e1")

	sender := &failingSender{}
	now := env.now
	deps := OutboxRetryDeps{
		OutboxStore: env.outbox,
		Sender:      sender,
		Now:         func() time.Time { return now },
		BaseDelay:   time.Minute,
		MaxDelay:    time.Hour,
	}

	res, err := ExecuteOutboxRetry(ctx, deps)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	// after one attempt the next is due 2 minutes later
	now = now.Add(time.Minute)
	res, err = ExecuteOutboxRetry(ctx, deps)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, sender.calls)

	for i := 2; i <= domainOutbox.DefaultMaxAttempts; i++ {
		now = now.Add(time.Hour)
		res, err = ExecuteOutboxRetry(ctx, deps)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Failed, "attempt %d", i)
	}

	e, err := env.outbox.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domainOutbox.StatusFailed, e.Status)
	assert.Equal(t, domainOutbox.DefaultMaxAttempts, e.Attempts)

	failed, err := env.outbox.ListFailed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, failed, 1)

	now = now.Add(24 * time.Hour)
	res, err = ExecuteOutboxRetry(ctx, deps)
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
	assert.Equal(t, domainOutbox.DefaultMaxAttempts, sender.calls)
}

func TestExecuteOutboxRetry_CancelledContext(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ExecuteOutboxRetry(ctx, OutboxRetryDeps{OutboxStore: fakeOutbox{entries: []domainOutbox.Entry{{ID: "x"}}}, Sender: env.sender, Now: env.clock})
	require.NoError(t, err)
	assert.Zero(t, res.Processed)
	assert.Empty(t, env.sender.Sent())
}

type fakeOutbox struct {
	entries []domainOutbox.Entry
}

func (f fakeOutbox) ListPending(context.Context, int) ([]domainOutbox.Entry, error) {
	return f.entries, nil
}

func (f fakeOutbox) Save(context.Context, domainOutbox.Entry) error { return nil }
