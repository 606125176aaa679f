package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of background work. It should return promptly once ctx is done.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron schedules for the lifetime of a context.
type Scheduler struct {
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]Job
	ctx  context.Context
}

// New creates an empty scheduler. Overlapping runs of the same job are skipped and
// panics are recovered and logged.
func New() *Scheduler {
	logger := slogAdapter{}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		), cron.WithLogger(logger)),
		jobs: make(map[string]Job),
		ctx:  context.Background(),
	}
}

// Add registers job under name with a standard cron spec or descriptor such as "@every 1m".
// PRE: name is unique
// POST: job fires on spec once Run is called
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %q: %w", name, err)
	}
	s.jobs[name] = job
	return nil
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return job(ctx)
}

// Run starts the schedule and blocks until ctx is done, then waits for running jobs.
// POST: no job goroutine outlives Run
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	slog.Info("scheduler_event", "event", "started", "jobs", len(s.cron.Entries()))
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.Info("scheduler_event", "event", "stopped")
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := job(ctx)
	ms := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		slog.Error("scheduler_event", "event", "job_failed", "job", name, "duration_ms", ms, "error", err)
		return
	}
	slog.Debug("scheduler_event", "event", "job_done", "job", name, "duration_ms", ms)
}

// slogAdapter routes cron's own logging to slog.
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron", append([]any{"msg", msg}, keysAndValues...)...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron", append([]any{"msg", msg, "error", err}, keysAndValues...)...)
}
