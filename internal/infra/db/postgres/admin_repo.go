package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Ensure adminRepo implements repository.AdminRepository
var _ repository.AdminRepository = (*adminRepo)(nil)

type adminRepo struct {
	pool *pgxpool.Pool
}

func NewAdminRepo(pool *pgxpool.Pool) *adminRepo {
	return &adminRepo{pool: pool}
}

func (r *adminRepo) Save(ctx context.Context, tx repository.Tx, a *model.Admin) error {
	const q = `
INSERT INTO admins (username, password_hash, email, created_at)
VALUES ($1,$2,$3,$4)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, a.Username, a.PasswordHash, a.Email, a.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&a.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *adminRepo) FindByUsername(ctx context.Context, tx repository.Tx, username string) (*model.Admin, error) {
	const q = `SELECT id, username, password_hash, email, created_at FROM admins WHERE username=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, username)
	if err != nil {
		return nil, err
	}
	a := &model.Admin{}
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Email, &a.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}
