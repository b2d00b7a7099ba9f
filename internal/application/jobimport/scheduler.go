package jobimport

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type dueJobLister interface {
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type jobLauncher interface {
	Launch(jobID string) bool
}

type SchedulerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Scheduler launches pending jobs whose scheduled time has passed.
type Scheduler struct {
	jobs     dueJobLister
	launcher jobLauncher
	cfg      SchedulerConfig
	logger   zerolog.Logger
	now      func() time.Time

	once sync.Once
}

func NewScheduler(jobs dueJobLister, launcher jobLauncher, cfg SchedulerConfig, logger zerolog.Logger) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	return &Scheduler{
		jobs:     jobs,
		launcher: launcher,
		cfg:      cfg,
		logger:   logger.With().Str("component", "import_scheduler").Logger(),
		now:      time.Now,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		go s.loop(ctx)
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, err := s.Tick(ctx); err != nil {
			s.logger.Error().Err(err).Msg("list scheduled import jobs failed")
		}

		if !sleepWithContext(ctx, s.cfg.PollInterval) {
			return
		}
	}
}

// Tick launches every due job and returns how many runs were started.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	ids, err := s.jobs.ListDueScheduled(ctx, s.now().UTC(), s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	launched := 0
	for _, id := range ids {
		if s.launcher.Launch(id) {
			launched++
			s.logger.Info().Str("import_job_id", id).Msg("scheduled import launched")
		}
	}
	return launched, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
