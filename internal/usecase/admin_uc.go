package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminUseCase = (*adminUC)(nil)

type AdminUseCase interface {
	// Login checks back-office credentials. Unknown usernames and wrong
	// passwords are indistinguishable to the caller.
	Login(ctx context.Context, username, password string) (*model.Admin, error)
	AddAdmin(ctx context.Context, username, password, email string) (*model.Admin, error)
}

type adminUC struct {
	admins repository.AdminRepository
	log    zerolog.Logger
}

func NewAdminUseCase(admins repository.AdminRepository, logger zerolog.Logger) *adminUC {
	return &adminUC{admins: admins, log: logger.With().Str("component", "admin_uc").Logger()}
}

func (u *adminUC) Login(ctx context.Context, username, password string) (*model.Admin, error) {
	if username == "" || password == "" {
		return nil, domain.ErrUnauthorized
	}
	a, err := u.admins.FindByUsername(ctx, repository.NoTX, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		u.log.Warn().Str("username", username).Msg("back-office login rejected")
		return nil, domain.ErrUnauthorized
	}
	return a, nil
}

func (u *adminUC) AddAdmin(ctx context.Context, username, password, email string) (*model.Admin, error) {
	if username == "" || len(password) < 8 {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := u.admins.FindByUsername(ctx, repository.NoTX, username); err == nil {
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	a := &model.Admin{
		Username:     username,
		PasswordHash: string(hash),
		Email:        email,
		CreatedAt:    time.Now(),
	}
	if err := u.admins.Save(ctx, repository.NoTX, a); err != nil {
		return nil, err
	}
	u.log.Info().Str("username", username).Msg("back-office account created")
	return a, nil
}
