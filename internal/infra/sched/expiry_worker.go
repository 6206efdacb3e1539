package sched

import (
	"context"

	"github.com/rs/zerolog"

	"line-fortune-subscription/internal/infra/metrics"
	"line-fortune-subscription/internal/usecase"
)

// ExpiryWorker flips the active flag off on lapsed subscriptions. Readers
// re-derive activity from the end date, so this sweep only keeps the
// flag and the eligibility joins honest.
type ExpiryWorker struct {
	subUC usecase.SubscriptionUseCase
	log   *zerolog.Logger
}

func NewExpiryWorker(subUC usecase.SubscriptionUseCase, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{subUC: subUC, log: &exprLog}
}

func (w *ExpiryWorker) RunOnce(ctx context.Context) {
	n, err := w.subUC.DeactivateExpired(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep error")
		return
	}
	if n > 0 {
		metrics.AddExpiredSubscriptions(n)
		w.log.Info().Int64("count", n).Msg("expired subscriptions deactivated")
	}
}
