// Package scheduler runs the periodic maintenance jobs: cache resync from
// the store and the midnight flush of date dependent responses.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Task is a job body.  It receives a context bounded by the job timeout.
type Task func(ctx context.Context) error

// Resyncer reloads a cached collection from its store.
type Resyncer interface {
	Load(ctx context.Context) error
}

// Scheduler wraps a gocron scheduler with logging and timeouts.
type Scheduler struct {
	s       gocron.Scheduler
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a stopped scheduler whose daily jobs run in loc.
func New(loc *time.Location, timeout time.Duration, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	return &Scheduler{s: s, timeout: timeout, logger: logger.With("component", "scheduler")}, nil
}

// Every runs task every interval.  A run that is still going when the next
// one is due makes that next run wait.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) error {
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.wrap(name, task)),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

// Daily runs task once a day at hh:mm:ss in the scheduler's location.
func (s *Scheduler) Daily(hh, mm, ss uint, name string, task Task) error {
	_, err := s.s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hh, mm, ss))),
		gocron.NewTask(s.wrap(name, task)),
		gocron.WithName(name),
	)
	return err
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int { return len(s.s.Jobs()) }

func (s *Scheduler) Start() { s.s.Start() }

func (s *Scheduler) Shutdown() error { return s.s.Shutdown() }

func (s *Scheduler) wrap(name string, task Task) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error("job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("job done", "job", name, "took", time.Since(start))
	}
}

// Resync reloads every target; all targets are attempted.
func Resync(targets ...Resyncer) Task {
	return func(ctx context.Context) error {
		var errs []error
		for _, t := range targets {
			if err := t.Load(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
