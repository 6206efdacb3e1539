package repository

import (
	"context"
	"time"

	"line-fortune-subscription/internal/domain/model"
)

// SubscriptionRepository is the port for entitlement records. The
// subscription engine is the only writer; rows are never deleted.
type SubscriptionRepository interface {
	Insert(ctx context.Context, tx Tx, s *model.Subscription) error
	Update(ctx context.Context, tx Tx, s *model.Subscription) error
	// FindActiveByUser returns the most recent row with is_active set AND
	// end_date > now; nil with ErrNotFound when none qualifies.
	FindActiveByUser(ctx context.Context, tx Tx, userID string, now time.Time) (*model.Subscription, error)
	// FindLatestByUser returns the most recent row regardless of state.
	FindLatestByUser(ctx context.Context, tx Tx, userID string) (*model.Subscription, error)
	// FindExpiredByUser returns the most recent row whose end_date has
	// passed, regardless of the is_active flag.
	FindExpiredByUser(ctx context.Context, tx Tx, userID string, now time.Time) (*model.Subscription, error)
	// DeactivateExpired flips is_active off for every row whose end_date
	// is at or before now, returning the number of rows changed.
	DeactivateExpired(ctx context.Context, tx Tx, now time.Time) (int64, error)
}
