//go:build !integration

package cache

import (
	"testing"
	"time"

	"line-fortune-subscription/internal/domain/model"
)

func TestSubscriptionCache(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sub := &model.Subscription{UserID: "U1", IsActive: true, EndDate: base.AddDate(0, 0, 30)}

	t.Run("set then get within TTL", func(t *testing.T) {
		now := base
		c := NewSubscriptionCache(WithClock(func() time.Time { return now }))
		c.Set("U1", sub)

		got, ok := c.Get("U1")
		if !ok || got.UserID != "U1" {
			t.Fatalf("expected cached snapshot, got %v, %v", got, ok)
		}
	})

	t.Run("entry expires after TTL", func(t *testing.T) {
		now := base
		c := NewSubscriptionCache(WithClock(func() time.Time { return now }), WithTTL(time.Minute))
		c.Set("U1", sub)

		now = base.Add(time.Minute + time.Second)
		if _, ok := c.Get("U1"); ok {
			t.Error("expected a miss after the TTL elapsed")
		}
	})

	t.Run("invalidate removes one user", func(t *testing.T) {
		c := NewSubscriptionCache(WithClock(func() time.Time { return base }))
		c.Set("U1", sub)
		c.Set("U2", &model.Subscription{UserID: "U2"})

		c.Invalidate("U1")
		if _, ok := c.Get("U1"); ok {
			t.Error("U1 must be gone")
		}
		if _, ok := c.Get("U2"); !ok {
			t.Error("U2 must survive")
		}
	})

	t.Run("invalidate all empties the cache", func(t *testing.T) {
		c := NewSubscriptionCache(WithClock(func() time.Time { return base }))
		c.Set("U1", sub)
		c.Set("U2", &model.Subscription{UserID: "U2"})

		c.InvalidateAll()
		if c.Len() != 0 {
			t.Errorf("len = %d, want 0", c.Len())
		}
	})

	t.Run("sweep removes only expired entries", func(t *testing.T) {
		now := base
		c := NewSubscriptionCache(WithClock(func() time.Time { return now }), WithTTL(time.Minute))
		c.Set("old", sub)

		now = base.Add(30 * time.Second)
		c.Set("fresh", &model.Subscription{UserID: "fresh"})

		now = base.Add(70 * time.Second)
		if removed := c.Sweep(); removed != 1 {
			t.Errorf("swept %d entries, want 1", removed)
		}
		if _, ok := c.Get("fresh"); !ok {
			t.Error("unexpired entry must survive the sweep")
		}
		if c.Len() != 1 {
			t.Errorf("len = %d, want 1", c.Len())
		}
	})
}
