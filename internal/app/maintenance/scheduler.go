package maintenance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mindfulpath/practicesite/pkg/logger"
)

const defaultSchedule = "@every 1m"

// Job is one recurring maintenance task.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs maintenance jobs on cron schedules, such as purging stale request cache
// entries on the admin client or compacting list positions on the server.
type Scheduler struct {
	jobs     []Job
	cron     *cron.Cron
	log      *zap.Logger
	observer Observer
}

// Observer is told about every finished job run.
type Observer func(job string, err error, elapsed time.Duration)

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithLogger overrides the scheduler logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithObserver registers fn to receive job outcomes, e.g. for health reporting.
func WithObserver(fn Observer) Option {
	return func(s *Scheduler) {
		s.observer = fn
	}
}

// NewScheduler constructs a Scheduler. Jobs without a Run func are dropped; jobs without a
// schedule run every minute.
func NewScheduler(jobs []Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		log: logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	for _, job := range jobs {
		if job.Run == nil {
			continue
		}
		if strings.TrimSpace(job.Schedule) == "" {
			job.Schedule = defaultSchedule
		}
		s.jobs = append(s.jobs, job)
	}
	return s
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []Job {
	return append([]Job(nil), s.jobs...)
}

// Start registers every job with the cron scheduler and launches it if at least one job
// is configured.
func (s *Scheduler) Start() error {
	if len(s.jobs) == 0 {
		return nil
	}

	for _, job := range s.jobs {
		job := job
		if _, err := s.cron.AddFunc(job.Schedule, func() {
			if err := s.run(context.Background(), job); err != nil {
				s.log.Warn("maintenance job failed", zap.String("job", job.Name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes all jobs sequentially and aggregates their errors.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		return errors.New("maintenance: context is required")
	}

	var errs error
	for _, job := range s.jobs {
		if err := s.run(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name, err))
		}
	}
	return errs
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Run(ctx)
	if s.observer != nil {
		s.observer(job.Name, err, time.Since(start))
	}
	return err
}
