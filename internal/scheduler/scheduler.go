package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Job names.
const (
	JobQuotaRefresh = "quota-refresh"
	JobSendLogPurge = "send-log-purge"
)

// QuotaRefresher rediscovers the provider send rate.
type QuotaRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// SendLogPurger deletes send log entries older than a cutoff.
type SendLogPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the scheduler configuration.
type Config struct {
	Quota QuotaRefresher
	Sends SendLogPurger
	// QuotaInterval is how often the send rate is rediscovered. Zero disables the job.
	QuotaInterval time.Duration
	// Retention is how long send log rows are kept. Zero disables the purge job.
	Retention     time.Duration
	PurgeInterval time.Duration
	// JobTimeout bounds a single job run. Defaults to one minute.
	JobTimeout     time.Duration
	Logger         *slog.Logger
	MaxConcurrency int
	// Clock is optional; tests pass a fake clock.
	Clock clockwork.Clock
}

// Scheduler runs the periodic maintenance jobs using gocron.
type Scheduler struct {
	cron      gocron.Scheduler
	cfg       Config
	clock     clockwork.Clock
	jobs      map[string]uuid.UUID // job name → gocron job UUID
	mu        sync.Mutex
	semaphore chan struct{}
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(cfg Config) (*Scheduler, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cron, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("creating gocron scheduler: %w", err)
	}

	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 2
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = 6 * time.Hour
	}

	return &Scheduler{
		cron:      cron,
		cfg:       cfg,
		clock:     clock,
		jobs:      make(map[string]uuid.UUID),
		semaphore: make(chan struct{}, maxConc),
		logger:    cfg.Logger,
	}, nil
}

// Start schedules the enabled jobs and starts the gocron scheduler.
func (s *Scheduler) Start(_ context.Context) error {
	if s.cfg.Quota != nil && s.cfg.QuotaInterval > 0 {
		if err := s.schedule(JobQuotaRefresh, s.cfg.QuotaInterval); err != nil {
			return err
		}
	}
	if s.cfg.Sends != nil && s.cfg.Retention > 0 {
		if err := s.schedule(JobSendLogPurge, s.cfg.PurgeInterval); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("maintenance scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop shuts down the gocron scheduler.
func (s *Scheduler) Stop() error {
	return s.cron.Shutdown()
}

// Scheduled reports whether the named job is registered.
func (s *Scheduler) Scheduled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[name]
	return ok
}

// schedule adds or replaces a duration job. Overlapping runs of the same
// job are rescheduled rather than queued.
func (s *Scheduler) schedule(name string, every time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if jobID, ok := s.jobs[name]; ok {
		if err := s.cron.RemoveJob(jobID); err != nil {
			s.logger.Warn("failed to remove existing job", "job", name, "error", err)
		}
		delete(s.jobs, name)
	}

	job, err := s.cron.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { s.runJob(name) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("scheduling job %q: %w", name, err)
	}

	s.jobs[name] = job.ID()
	s.logger.Info("job scheduled", "job", name, "every", every)
	return nil
}
