package repository

import (
	"context"

	"line-fortune-subscription/internal/domain/model"
)

// FortuneRepository is the port for per-day content rows.
type FortuneRepository interface {
	Insert(ctx context.Context, tx Tx, f *model.DailyFortune) error
	FindByUserAndDate(ctx context.Context, tx Tx, userID, date string) (*model.DailyFortune, error)
	// FindTodayRecipients joins users with an active subscription against
	// content rows for the given date.
	FindTodayRecipients(ctx context.Context, tx Tx, date string) ([]*model.FortuneRecipient, error)
}

// AdminRepository is the port for back-office accounts.
type AdminRepository interface {
	Save(ctx context.Context, tx Tx, a *model.Admin) error
	FindByUsername(ctx context.Context, tx Tx, username string) (*model.Admin, error)
}
