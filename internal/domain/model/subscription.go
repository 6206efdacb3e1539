package model

import (
	"time"

	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
)

// Subscription is the entitlement record for a user. "Active" is always
// derived from the stored end date; the IsActive flag only exists so the
// hourly sweep can mark rows, and readers must never trust it alone.
type Subscription struct {
	ID              int64
	UserID          string
	PackageID       int64
	PackageName     string
	PackageDuration int
	PackagePrice    decimal.Decimal
	IsActive        bool
	StartDate       time.Time
	EndDate         time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSubscription snapshots the package and starts the entitlement now.
func NewSubscription(userID string, pkg *Package, now time.Time) (*Subscription, error) {
	if userID == "" || pkg == nil || pkg.Name == "" || pkg.DurationDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		UserID:          userID,
		PackageID:       pkg.ID,
		PackageName:     pkg.Name,
		PackageDuration: pkg.DurationDays,
		PackagePrice:    pkg.Price,
		IsActive:        true,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, pkg.DurationDays),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ActiveAt derives activity from the stored end date. The flag may lag
// behind the sweep, so both conditions are required.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return s != nil && s.IsActive && s.EndDate.After(now)
}

// ExpiredAt reports whether the stored end date has passed, regardless of
// the IsActive flag.
func (s *Subscription) ExpiredAt(now time.Time) bool {
	return s != nil && !s.EndDate.After(now)
}
