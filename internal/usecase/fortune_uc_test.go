//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

func newFortuneDeps() (*memFortuneRepo, *memSubscriptionRepo, *fortuneUC, time.Time) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	fortunes := newMemFortuneRepo()
	subRepo := newMemSubscriptionRepo()
	subUC := NewSubscriptionUseCase(subRepo, newFakeCache())
	subUC.now = func() time.Time { return now }
	uc := NewFortuneUseCase(fortunes, subUC)
	uc.now = func() time.Time { return now }
	return fortunes, subRepo, uc, now
}

func TestFortuneUseCase_CreateFortune(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults the date to today in Bangkok", func(t *testing.T) {
		_, _, uc, now := newFortuneDeps()
		f := &model.DailyFortune{UserID: "U1", Content: "วันนี้ดวงดี"}
		if err := uc.CreateFortune(ctx, f); err != nil {
			t.Fatalf("create: %v", err)
		}
		want := now.In(time.FixedZone("ICT", 7*3600)).Format("2006-01-02")
		if f.FortuneDate != want {
			t.Errorf("date = %q, want %q", f.FortuneDate, want)
		}
	})

	t.Run("one row per user per day", func(t *testing.T) {
		_, _, uc, _ := newFortuneDeps()
		if err := uc.CreateFortune(ctx, &model.DailyFortune{UserID: "U1", FortuneDate: "2026-03-02", Content: "ก"}); err != nil {
			t.Fatalf("first: %v", err)
		}
		err := uc.CreateFortune(ctx, &model.DailyFortune{UserID: "U1", FortuneDate: "2026-03-02", Content: "ข"})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("blank content rejected", func(t *testing.T) {
		_, _, uc, _ := newFortuneDeps()
		if err := uc.CreateFortune(ctx, &model.DailyFortune{UserID: "U1", Content: "   "}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestFortuneUseCase_GetTodayFortune(t *testing.T) {
	ctx := context.Background()

	t.Run("gated on an active subscription", func(t *testing.T) {
		fortunes, _, uc, now := newFortuneDeps()
		today := now.In(time.FixedZone("ICT", 7*3600)).Format("2006-01-02")
		fortunes.Insert(ctx, repository.NoTX, &model.DailyFortune{UserID: "U1", FortuneDate: today, Content: "วันนี้ดวงดี"})

		if _, err := uc.GetTodayFortune(ctx, "U1"); !errors.Is(err, domain.ErrNoActiveSubscription) {
			t.Errorf("expected ErrNoActiveSubscription, got %v", err)
		}
	})

	t.Run("active member reads today's content", func(t *testing.T) {
		fortunes, subRepo, uc, now := newFortuneDeps()
		today := now.In(time.FixedZone("ICT", 7*3600)).Format("2006-01-02")
		fortunes.Insert(ctx, repository.NoTX, &model.DailyFortune{UserID: "U1", FortuneDate: today, Content: "วันนี้ดวงดี"})
		subRepo.Insert(ctx, repository.NoTX, &model.Subscription{
			UserID: "U1", IsActive: true, StartDate: now, EndDate: now.AddDate(0, 0, 30), CreatedAt: now,
		})

		f, err := uc.GetTodayFortune(ctx, "U1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if f.Content != "วันนี้ดวงดี" {
			t.Errorf("content = %q", f.Content)
		}
	})

	t.Run("active member with no content for today", func(t *testing.T) {
		_, subRepo, uc, now := newFortuneDeps()
		subRepo.Insert(ctx, repository.NoTX, &model.Subscription{
			UserID: "U1", IsActive: true, StartDate: now, EndDate: now.AddDate(0, 0, 30), CreatedAt: now,
		})
		if _, err := uc.GetTodayFortune(ctx, "U1"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
