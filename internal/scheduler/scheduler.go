// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// JobFunc runs at a boundary. at is the boundary the run was scheduled for.
type JobFunc func(ctx context.Context, at time.Time) error

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

// Scheduler fires jobs on wall-clock aligned boundaries, so an hourly job
// runs at the top of every hour regardless of when the process started.
type Scheduler struct {
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	jobs    []job
	running bool
}

// New creates an empty Scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger, now: time.Now}
}

// Every registers fn to run at every multiple of interval. Jobs must be
// registered before Run.
func (s *Scheduler) Every(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler: cannot register jobs while running")
	}
	s.jobs = append(s.jobs, job{name: name, interval: interval, fn: fn})
	return nil
}

// Run blocks until ctx ends. A failing job is logged and rescheduled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler: already running")
	}
	s.running = true
	jobs := append([]job(nil), s.jobs...)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	g, ctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		g.Go(func() error {
			s.loop(ctx, j)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	log := s.logger.With("job", j.name, "interval", j.interval.String())
	log.Info("scheduler job started")

	for {
		next := s.now().Truncate(j.interval).Add(j.interval)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("scheduler job stopped")
			return
		case <-timer.C:
		}

		start := time.Now()
		if err := s.runJob(ctx, j, next); err != nil {
			log.Error("scheduler job failed", "at", next, "error", err)
			continue
		}
		log.Debug("scheduler job finished", "at", next, "took", time.Since(start))
	}
}

func (s *Scheduler) runJob(ctx context.Context, j job, at time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("panic in scheduled job")
			s.logger.Error("scheduler job panicked", "job", j.name, "panic", r)
		}
	}()
	return j.fn(ctx, at)
}
