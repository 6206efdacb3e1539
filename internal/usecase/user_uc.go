package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/adapter"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// LoginResult tells the web layer where to send the user next: the
// registration form, the payment page, the renewal page, or straight to
// their content when the subscription is already active.
type LoginResult struct {
	User       *model.User `json:"user"`
	Registered bool        `json:"registered"`
	Redirect   string      `json:"redirect"`
}

const (
	redirectRegister = "/register"
	redirectPayment  = "/order/payment"
	redirectRenew    = "/order/renew"
	redirectMember   = "/order/succeeded"
)

type UserUseCase interface {
	// Login exchanges a platform identity token for the local account and
	// a redirect derived from the user's subscription state.
	Login(ctx context.Context, idToken string) (*LoginResult, error)
	// Register verifies the token and creates the member record. Saving
	// an existing subject refreshes the mutable profile fields.
	Register(ctx context.Context, idToken, fullName, phone, birthDate string) (*model.User, error)
	GetBySubject(ctx context.Context, subject string) (*model.User, error)
	CountUsers(ctx context.Context) (int, error)
}

type userUC struct {
	users    repository.UserRepository
	subs     SubscriptionUseCase
	identity adapter.IdentityVerifier
	log      zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, subs SubscriptionUseCase, identity adapter.IdentityVerifier, logger zerolog.Logger) *userUC {
	return &userUC{
		users:    users,
		subs:     subs,
		identity: identity,
		log:      logger.With().Str("component", "user_uc").Logger(),
	}
}

func (u *userUC) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	if idToken == "" {
		return nil, domain.ErrInvalidArgument
	}
	profile, err := u.identity.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := u.users.FindBySubject(ctx, repository.NoTX, profile.Subject)
	if errors.Is(err, domain.ErrNotFound) {
		return &LoginResult{Registered: false, Redirect: redirectRegister}, nil
	}
	if err != nil {
		return nil, err
	}

	redirect, err := u.redirectFor(ctx, user.LineUserID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Registered: true, Redirect: redirect}, nil
}

// redirectFor maps subscription state to the page the member lands on:
// active goes to content, lapsed goes to renewal, never-subscribed goes
// to first payment.
func (u *userUC) redirectFor(ctx context.Context, userID string) (string, error) {
	active, err := u.subs.HasActive(ctx, userID)
	if err != nil {
		return "", err
	}
	if active {
		return redirectMember, nil
	}
	_, err = u.subs.GetExpired(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return redirectPayment, nil
	}
	if err != nil {
		return "", err
	}
	return redirectRenew, nil
}

func (u *userUC) Register(ctx context.Context, idToken, fullName, phone, birthDate string) (*model.User, error) {
	if idToken == "" {
		return nil, domain.ErrInvalidArgument
	}
	profile, err := u.identity.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser(profile.Subject, profile.Name, fullName, phone, birthDate, profile.Picture)
	if err != nil {
		return nil, err
	}
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	u.log.Info().Str("user_id", user.LineUserID).Msg("member registered")
	return user, nil
}

func (u *userUC) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	return u.users.FindBySubject(ctx, repository.NoTX, subject)
}

func (u *userUC) CountUsers(ctx context.Context) (int, error) {
	return u.users.CountUsers(ctx, repository.NoTX)
}
