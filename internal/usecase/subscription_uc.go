package usecase

import (
	"context"
	"errors"
	"time"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionCache holds per-user active-subscription snapshots with a
// bounded TTL. Purely a read optimization: every answer the engine gives
// must also be correct with a cache that always misses.
type SubscriptionCache interface {
	Get(userID string) (*model.Subscription, bool)
	Set(userID string, s *model.Subscription)
	Invalidate(userID string)
	InvalidateAll()
}

type SubscriptionUseCase interface {
	HasActive(ctx context.Context, userID string) (bool, error)
	// GetActive returns the user's current entitlement, or
	// domain.ErrNoActiveSubscription when none holds.
	GetActive(ctx context.Context, userID string) (*model.Subscription, error)
	// GetExpired returns the most recent lapsed subscription, used to
	// offer a renewal instead of a fresh purchase.
	GetExpired(ctx context.Context, userID string) (*model.Subscription, error)
	Create(ctx context.Context, tx repository.Tx, userID string, pkg *model.Package) (*model.Subscription, error)
	Extend(ctx context.Context, tx repository.Tx, userID string, additionalDays int) (*model.Subscription, error)
	// GrantVerifiedPayment applies a settled payment to the user's
	// entitlement: extends the latest subscription if one exists,
	// otherwise creates a fresh one from the package snapshot.
	GrantVerifiedPayment(ctx context.Context, tx repository.Tx, userID string, pkg *model.Package) (*model.Subscription, error)
	// DeactivateExpired flips the active flag off for every lapsed row
	// and returns how many changed.
	DeactivateExpired(ctx context.Context) (int64, error)
}

type subscriptionUC struct {
	subs  repository.SubscriptionRepository
	cache SubscriptionCache
	now   func() time.Time
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, cache SubscriptionCache) *subscriptionUC {
	return &subscriptionUC{subs: subs, cache: cache, now: time.Now}
}

func (u *subscriptionUC) HasActive(ctx context.Context, userID string) (bool, error) {
	_, err := u.GetActive(ctx, userID)
	if errors.Is(err, domain.ErrNoActiveSubscription) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (u *subscriptionUC) GetActive(ctx context.Context, userID string) (*model.Subscription, error) {
	now := u.now()
	// A cached snapshot may outlive its end date within the TTL, so the
	// date is re-derived on every hit.
	if s, ok := u.cache.Get(userID); ok {
		if s.ActiveAt(now) {
			return s, nil
		}
		u.cache.Invalidate(userID)
	}
	s, err := u.subs.FindActiveByUser(ctx, repository.NoTX, userID, now)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoActiveSubscription
	}
	if err != nil {
		return nil, err
	}
	if !s.ActiveAt(now) {
		return nil, domain.ErrNoActiveSubscription
	}
	u.cache.Set(userID, s)
	return s, nil
}

func (u *subscriptionUC) GetExpired(ctx context.Context, userID string) (*model.Subscription, error) {
	return u.subs.FindExpiredByUser(ctx, repository.NoTX, userID, u.now())
}

func (u *subscriptionUC) Create(ctx context.Context, tx repository.Tx, userID string, pkg *model.Package) (*model.Subscription, error) {
	s, err := model.NewSubscription(userID, pkg, u.now())
	if err != nil {
		return nil, err
	}
	if err := u.subs.Insert(ctx, tx, s); err != nil {
		return nil, err
	}
	u.cache.Invalidate(userID)
	return s, nil
}

func (u *subscriptionUC) Extend(ctx context.Context, tx repository.Tx, userID string, additionalDays int) (*model.Subscription, error) {
	if additionalDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	s, err := u.subs.FindLatestByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	now := u.now()
	// Early renewal keeps unused time: the new end date grows from the
	// stored end date. A lapsed subscription restarts from now instead,
	// so a years-old row does not swallow the purchased days.
	base := s.EndDate
	if base.Before(now) {
		base = now
	}
	s.EndDate = base.AddDate(0, 0, additionalDays)
	s.IsActive = true
	s.UpdatedAt = now
	if err := u.subs.Update(ctx, tx, s); err != nil {
		return nil, err
	}
	u.cache.Invalidate(userID)
	return s, nil
}

func (u *subscriptionUC) GrantVerifiedPayment(ctx context.Context, tx repository.Tx, userID string, pkg *model.Package) (*model.Subscription, error) {
	if !pkg.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	_, err := u.subs.FindLatestByUser(ctx, tx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return u.Create(ctx, tx, userID, pkg)
	}
	if err != nil {
		return nil, err
	}
	return u.Extend(ctx, tx, userID, pkg.DurationDays)
}

func (u *subscriptionUC) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := u.subs.DeactivateExpired(ctx, repository.NoTX, u.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		// The bulk sweep does not know which users flipped.
		u.cache.InvalidateAll()
	}
	return n, nil
}
