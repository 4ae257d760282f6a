// Package scheduler runs the daily report job on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	running atomic.Bool
	timeout time.Duration

	mu      sync.Mutex
	started bool

	// jobs run under ctx; Stop cancels it and the next Start replaces it
	ctxMu  sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

func New(loc *time.Location, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		logger:  logger,
		timeout: 10 * time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add registers job under name on a standard five field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.Run(name, job)
	})
	if err != nil {
		return fmt.Errorf("schedule %s at %q: %w", name, spec, err)
	}
	return nil
}

// Run executes job now unless a scheduled job is already in flight.
// It reports whether the job ran.
func (s *Scheduler) Run(name string, job Job) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("scheduled job still running, skipping", slog.String("job", name))
		return false
	}
	defer s.running.Store(false)

	s.ctxMu.RLock()
	parent := s.ctx
	s.ctxMu.RUnlock()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	started := time.Now()
	logger := s.logger.With(slog.String("job", name))
	logger.Info("scheduled job started")

	if err := job(ctx); err != nil {
		logger.Error("scheduled job failed", slog.Any("error", err), slog.Duration("took", time.Since(started)))
		return true
	}

	logger.Info("scheduled job finished", slog.Duration("took", time.Since(started)))
	return true
}

// Start is idempotent. A stopped scheduler can be started again.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true

	s.ctxMu.Lock()
	if s.ctx.Err() != nil {
		s.ctx, s.cancel = context.WithCancel(context.Background())
	}
	s.ctxMu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.cron.Entries())))
}

// Stop cancels running jobs and waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	s.ctxMu.RLock()
	s.cancel()
	s.ctxMu.RUnlock()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop scheduler: %w", ctx.Err())
	}
}

// Next returns when the next job fires; zero if none is scheduled.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	next := entries[0].Next
	for _, e := range entries[1:] {
		if e.Next.Before(next) {
			next = e.Next
		}
	}
	return next
}
