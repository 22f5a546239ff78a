package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stackvest/backend/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.SchedulerConfig
}

// NewScheduler creates a scheduler. Schedules are evaluated in UTC so accrual days line up
// with gain dates.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.SchedulerConfig) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the jobs and starts the cron scheduler. It fails if a schedule does not
// parse.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.config.DailyGainSchedule, s.jobs.CreditDailyGains); err != nil {
		return fmt.Errorf("schedule daily gain job %q: %w", s.config.DailyGainSchedule, err)
	}
	s.logger.Info("scheduled daily gain job", "schedule", s.config.DailyGainSchedule)

	if _, err := s.cron.AddFunc(s.config.MaturitySchedule, s.jobs.MatureInvestments); err != nil {
		return fmt.Errorf("schedule maturity job %q: %w", s.config.MaturitySchedule, err)
	}
	s.logger.Info("scheduled maturity job", "schedule", s.config.MaturitySchedule)

	if s.config.RunOnStart {
		go func() {
			s.jobs.CreditDailyGains()
			s.jobs.MatureInvestments()
		}()
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
