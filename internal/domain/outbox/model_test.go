package outbox_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parker/internal/domain/outbox"
)

func TestNewEmail(t *testing.T) {
	now := time.Now()
	_, err := outbox.NewEmail("e1", outbox.EmailPayload{Subject: "hi"}, now)
	assert.ErrorIs(t, err, outbox.ErrNoRecipients)

	e, err := outbox.NewEmail("e1", outbox.EmailPayload{To: []string{"jo@parker.dev"}, Subject: "hi", HTML: "<p>x</p>"}, now)
	require.NoError(t, err)
	assert.Equal(t, outbox.StatusPending, e.Status)
	assert.Equal(t, outbox.DefaultMaxAttempts, e.MaxAttempts)

	p, err := e.Email()
	require.NoError(t, err)
	assert.Equal(t, []string{"jo@parker.dev"}, p.To)
	assert.Equal(t, "hi", p.Subject)
}

// TestEntry_Lifecycle walks an entry through retries until it fails for good.
func TestEntry_Lifecycle(t *testing.T) {
	now := time.Now()
	e, err := outbox.NewEmail("e1", outbox.EmailPayload{To: []string{"a@b.co"}}, now)
	require.NoError(t, err)
	e.MaxAttempts = 2

	assert.True(t, e.CanRetry())
	e.MarkAttempt(now)
	e.MarkFailed(errors.New("smtp down"))
	assert.Equal(t, outbox.StatusRetrying, e.Status)
	assert.True(t, e.CanRetry())

	e.MarkAttempt(now)
	e.MarkFailed(errors.New("smtp down"))
	assert.Equal(t, outbox.StatusFailed, e.Status)
	assert.False(t, e.CanRetry())
	assert.Equal(t, "smtp down", e.ErrorMessage)
}

func TestEntry_MarkSuccess(t *testing.T) {
	e := outbox.Entry{Status: outbox.StatusRetrying, ErrorMessage: "old"}
	e.MarkSuccess("msg-1")
	assert.Equal(t, outbox.StatusDone, e.Status)
	assert.Equal(t, "msg-1", e.ExternalID)
	assert.Empty(t, e.ErrorMessage)
	assert.False(t, e.CanRetry())
}

func TestEntry_Backoff(t *testing.T) {
	base, max := time.Minute, time.Hour
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Minute},
		{1, 2 * time.Minute},
		{3, 8 * time.Minute},
		{10, time.Hour},
		{64, time.Hour},
	}
	for _, tt := range tests {
		e := outbox.Entry{Attempts: tt.attempts}
		assert.Equal(t, tt.want, e.NextRetryDelay(base, max), "attempts=%d", tt.attempts)
	}

	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := outbox.Entry{Attempts: 1, LastAttemptedAt: last}
	assert.False(t, e.IsDue(last.Add(time.Minute), base, max))
	assert.True(t, e.IsDue(last.Add(2*time.Minute), base, max))
	assert.True(t, (&outbox.Entry{}).IsDue(last, base, max))
}
