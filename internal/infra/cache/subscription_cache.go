package cache

import (
	"sync"
	"time"

	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/infra/metrics"
	"line-fortune-subscription/internal/usecase"
)

var _ usecase.SubscriptionCache = (*SubscriptionCache)(nil)

// SubscriptionCache is a process-local map of user id to the active
// subscription snapshot, bounded by a fixed TTL. Entries are invalidated
// synchronously on every subscription write; a periodic sweep removes
// expired entries so memory tracks the active user set, not its history.
type SubscriptionCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	sub       *model.Subscription
	expiresAt time.Time
}

const DefaultTTL = 5 * time.Minute

type Option func(*SubscriptionCache)

// WithClock replaces the time source, letting tests drive TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(c *SubscriptionCache) { c.now = now }
}

func WithTTL(ttl time.Duration) Option {
	return func(c *SubscriptionCache) { c.ttl = ttl }
}

func NewSubscriptionCache(opts ...Option) *SubscriptionCache {
	c := &SubscriptionCache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *SubscriptionCache) Get(userID string) (*model.Subscription, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		metrics.IncCacheRequest("subscription", "miss")
		return nil, false
	}
	metrics.IncCacheRequest("subscription", "hit")
	return e.sub, true
}

func (c *SubscriptionCache) Set(userID string, s *model.Subscription) {
	c.mu.Lock()
	c.entries[userID] = entry{sub: s, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *SubscriptionCache) Invalidate(userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

func (c *SubscriptionCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Sweep drops expired entries and returns how many were removed.
func (c *SubscriptionCache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *SubscriptionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
