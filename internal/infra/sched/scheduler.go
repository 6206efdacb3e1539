package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"line-fortune-subscription/internal/config"
)

// Scheduler runs the periodic jobs on timezone-pinned cron expressions:
// the daily fortune dispatch, the hourly subscription expiry sweep, and
// the half-hourly cache cleanup.
type Scheduler struct {
	cron *cron.Cron
	log  *zerolog.Logger
}

func NewScheduler(cfg *config.SchedulerConfig, logger *zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone: %w", err)
	}
	schedLog := logger.With().Str("component", "Scheduler").Logger()
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{&schedLog})),
	)
	return &Scheduler{cron: c, log: &schedLog}, nil
}

// Add registers a named job on a cron expression.
func (s *Scheduler) Add(spec, name string, job func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.log.Info().Str("job", name).Msg("job started")
		job(context.Background())
		s.log.Info().Str("job", name).Dur("elapsed", time.Since(start)).Msg("job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.log.Info().Msg("Starting scheduler")
	s.cron.Start()
}

// Stop waits for in-flight jobs before returning.
func (s *Scheduler) Stop() {
	s.log.Info().Msg("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// cronLogger adapts zerolog to the cron logger interface used by the
// panic-recovery chain.
type cronLogger struct {
	log *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Interface("kv", keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Interface("kv", keysAndValues).Msg(msg)
}
