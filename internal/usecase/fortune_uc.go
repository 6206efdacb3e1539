package usecase

import (
	"context"
	"strings"
	"time"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ FortuneUseCase = (*fortuneUC)(nil)

type FortuneUseCase interface {
	// CreateFortune stores one day's content for a user. One row per
	// (user, date); a second insert for the same day is rejected.
	CreateFortune(ctx context.Context, f *model.DailyFortune) error
	// GetTodayFortune returns the member's content for today, gated on an
	// active subscription.
	GetTodayFortune(ctx context.Context, userID string) (*model.DailyFortune, error)
}

type fortuneUC struct {
	fortunes repository.FortuneRepository
	subs     SubscriptionUseCase
	now      func() time.Time
	loc      *time.Location
}

func NewFortuneUseCase(fortunes repository.FortuneRepository, subs SubscriptionUseCase) *fortuneUC {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}
	return &fortuneUC{fortunes: fortunes, subs: subs, now: time.Now, loc: loc}
}

func (u *fortuneUC) CreateFortune(ctx context.Context, f *model.DailyFortune) error {
	if f == nil || f.UserID == "" || strings.TrimSpace(f.Content) == "" {
		return domain.ErrInvalidArgument
	}
	if f.FortuneDate == "" {
		f.FortuneDate = u.now().In(u.loc).Format("2006-01-02")
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = u.now()
	}
	return u.fortunes.Insert(ctx, repository.NoTX, f)
}

func (u *fortuneUC) GetTodayFortune(ctx context.Context, userID string) (*model.DailyFortune, error) {
	active, err := u.subs.HasActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, domain.ErrNoActiveSubscription
	}
	today := u.now().In(u.loc).Format("2006-01-02")
	return u.fortunes.FindByUserAndDate(ctx, repository.NoTX, userID, today)
}
