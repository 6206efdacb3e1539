package repository

import (
	"context"

	"line-fortune-subscription/internal/domain/model"
)

// UserRepository is the port for registered members.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindBySubject(ctx context.Context, tx Tx, lineUserID string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
