//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/adapter"
	"line-fortune-subscription/internal/domain/ports/repository"
)

type userDeps struct {
	users    *memUserRepo
	subRepo  *memSubscriptionRepo
	identity *fakeIdentity
	subUC    *subscriptionUC
	uc       *userUC
	now      time.Time
}

func newUserDeps() *userDeps {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := &userDeps{
		users:   newMemUserRepo(),
		subRepo: newMemSubscriptionRepo(),
		identity: &fakeIdentity{profiles: map[string]*adapter.IdentityProfile{
			"tok-1": {Subject: "U1", Name: "สมชาย", Picture: "https://cdn/pic.jpg"},
		}},
		now: now,
	}
	d.subUC = NewSubscriptionUseCase(d.subRepo, newFakeCache())
	d.subUC.now = func() time.Time { return d.now }
	d.uc = NewUserUseCase(d.users, d.subUC, d.identity, newTestLogger())
	return d
}

func (d *userDeps) register(t *testing.T) *model.User {
	t.Helper()
	u, err := d.uc.Register(context.Background(), "tok-1", "สมชาย ใจดี", "0812345678", "1990-05-20")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestUserUseCase_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid token is rejected", func(t *testing.T) {
		d := newUserDeps()
		if _, err := d.uc.Login(ctx, "tok-bogus"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown subject is sent to registration", func(t *testing.T) {
		d := newUserDeps()
		res, err := d.uc.Login(ctx, "tok-1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.Registered || res.Redirect != "/register" {
			t.Errorf("result = %+v, want unregistered redirect to /register", res)
		}
	})

	t.Run("member without history is sent to payment", func(t *testing.T) {
		d := newUserDeps()
		d.register(t)
		res, err := d.uc.Login(ctx, "tok-1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if !res.Registered || res.Redirect != "/order/payment" {
			t.Errorf("result = %+v, want redirect to /order/payment", res)
		}
	})

	t.Run("lapsed member is sent to renewal", func(t *testing.T) {
		d := newUserDeps()
		d.register(t)
		d.subRepo.Insert(ctx, repository.NoTX, &model.Subscription{
			UserID: "U1", IsActive: false,
			StartDate: d.now.AddDate(0, -2, 0), EndDate: d.now.AddDate(0, -1, 0),
			CreatedAt: d.now.AddDate(0, -2, 0),
		})
		res, err := d.uc.Login(ctx, "tok-1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.Redirect != "/order/renew" {
			t.Errorf("redirect = %q, want /order/renew", res.Redirect)
		}
	})

	t.Run("active member goes straight through", func(t *testing.T) {
		d := newUserDeps()
		d.register(t)
		d.subRepo.Insert(ctx, repository.NoTX, &model.Subscription{
			UserID: "U1", IsActive: true,
			StartDate: d.now, EndDate: d.now.AddDate(0, 0, 30), CreatedAt: d.now,
		})
		res, err := d.uc.Login(ctx, "tok-1")
		if err != nil {
			t.Fatalf("login: %v", err)
		}
		if res.Redirect != "/order/succeeded" {
			t.Errorf("redirect = %q, want /order/succeeded", res.Redirect)
		}
	})

	t.Run("empty token is invalid input", func(t *testing.T) {
		d := newUserDeps()
		if _, err := d.uc.Login(ctx, ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestUserUseCase_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the member from the verified profile", func(t *testing.T) {
		d := newUserDeps()
		u := d.register(t)
		if u.LineUserID != "U1" || u.LineName != "สมชาย" {
			t.Errorf("profile fields not carried over: %+v", u)
		}
		stored, err := d.users.FindBySubject(ctx, repository.NoTX, "U1")
		if err != nil {
			t.Fatalf("expected stored member: %v", err)
		}
		if stored.FullName != "สมชาย ใจดี" {
			t.Errorf("full name = %q", stored.FullName)
		}
	})

	t.Run("re-registration refreshes the profile", func(t *testing.T) {
		d := newUserDeps()
		d.register(t)
		if _, err := d.uc.Register(ctx, "tok-1", "สมชาย ใจดีมาก", "0898765432", "1990-05-20"); err != nil {
			t.Fatalf("re-register: %v", err)
		}
		stored, _ := d.users.FindBySubject(ctx, repository.NoTX, "U1")
		if stored.FullName != "สมชาย ใจดีมาก" || stored.Phone != "0898765432" {
			t.Errorf("profile not refreshed: %+v", stored)
		}
		if n, _ := d.uc.CountUsers(ctx); n != 1 {
			t.Errorf("count = %d, want 1", n)
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		d := newUserDeps()
		cases := []struct {
			name      string
			fullName  string
			phone     string
			birthDate string
		}{
			{"name too short", "ก", "0812345678", "1990-05-20"},
			{"name with markup", "a<script>b", "0812345678", "1990-05-20"},
			{"landline number", "สมชาย ใจดี", "021234567", "1990-05-20"},
			{"malformed birth date", "สมชาย ใจดี", "0812345678", "20/05/1990"},
			{"future birth date", "สมชาย ใจดี", "0812345678", "2999-01-01"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := d.uc.Register(ctx, "tok-1", tc.fullName, tc.phone, tc.birthDate); !errors.Is(err, domain.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			})
		}
	})
}
