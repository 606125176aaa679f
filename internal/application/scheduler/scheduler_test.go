package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAdd_Validation(t *testing.T) {
	s := New()
	require.NoError(t, s.Add("retry", "@every 1m", func(context.Context) error { return nil }))
	assert.ErrorContains(t, s.Add("retry", "@hourly", func(context.Context) error { return nil }), "already registered")
	assert.Error(t, s.Add("bad", "not a schedule", func(context.Context) error { return nil }))
}

func TestRunNow(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	require.NoError(t, s.Add("fail", "@hourly", func(context.Context) error { return boom }))

	assert.ErrorIs(t, s.RunNow(context.Background(), "fail"), boom)
	assert.ErrorContains(t, s.RunNow(context.Background(), "missing"), "unknown job")
}

// TestRun_FiresAndStops checks a job runs on schedule and Run returns once ctx ends.
func TestRun_FiresAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New()
	var runs atomic.Int32
	fired := make(chan struct{}, 1)
	require.NoError(t, s.Add("tick", "@every 1s", func(ctx context.Context) error {
		runs.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not fire")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestRun_RecoversPanics(t *testing.T) {
	s := New()
	fired := make(chan struct{}, 2)
	require.NoError(t, s.Add("panics", "@every 1s", func(context.Context) error {
		fired <- struct{}{}
		panic("job exploded")
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(5 * time.Second):
			t.Fatalf("run %d did not happen after a panic", i+1)
		}
	}
}
