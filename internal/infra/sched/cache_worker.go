package sched

import (
	"context"

	"github.com/rs/zerolog"

	"line-fortune-subscription/internal/infra/cache"
)

// CacheWorker bounds the subscription cache's memory by removing entries
// whose TTL has passed.
type CacheWorker struct {
	cache *cache.SubscriptionCache
	log   *zerolog.Logger
}

func NewCacheWorker(c *cache.SubscriptionCache, logger *zerolog.Logger) *CacheWorker {
	cacheLog := logger.With().Str("component", "CacheWorker").Logger()
	return &CacheWorker{cache: c, log: &cacheLog}
}

func (w *CacheWorker) RunOnce(_ context.Context) {
	if n := w.cache.Sweep(); n > 0 {
		w.log.Debug().Int("removed", n).Int("remaining", w.cache.Len()).Msg("cache sweep")
	}
}
