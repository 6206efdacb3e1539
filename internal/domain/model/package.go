package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package is a purchasable plan with a fixed duration and price in THB.
// Packages are read-only reference data; transactions and subscriptions
// snapshot the fields they need at creation time so later edits never
// affect existing records.
type Package struct {
	ID           int64
	Name         string
	DisplayName  string
	DurationDays int
	Price        decimal.Decimal
	Active       bool
	CreatedAt    time.Time
}

func (p *Package) IsZero() bool { return p == nil || p.ID == 0 }

// Valid reports whether the package carries everything a snapshot needs.
func (p *Package) Valid() bool {
	return p != nil && p.Name != "" && p.DurationDays > 0 && p.Price.IsPositive()
}
