package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"line-fortune-subscription/internal/infra/metrics"
	"line-fortune-subscription/internal/usecase"
)

// DispatchWorker runs the daily fortune dispatch.
type DispatchWorker struct {
	dispatch usecase.DispatchUseCase
	log      *zerolog.Logger
}

func NewDispatchWorker(dispatch usecase.DispatchUseCase, logger *zerolog.Logger) *DispatchWorker {
	dispLog := logger.With().Str("component", "DispatchWorker").Logger()
	return &DispatchWorker{dispatch: dispatch, log: &dispLog}
}

// RunOnce executes a single dispatch sweep. Per-user failures are already
// absorbed into the report; only a setup failure reaches the log as an
// error.
func (w *DispatchWorker) RunOnce(ctx context.Context) {
	start := time.Now()
	report, err := w.dispatch.SendDailyFortunes(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("dispatch run failed")
		return
	}
	metrics.AddDispatched(report.Sent, report.Failed)
	metrics.ObserveDispatchRun(time.Since(start).Seconds())
	if report.Failed > 0 {
		w.log.Warn().
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Interface("failed_users", report.FailedUsers).
			Msg("dispatch finished with failures")
	}
}
