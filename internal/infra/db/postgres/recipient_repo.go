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

// Ensure recipientRepo implements repository.RecipientRepository
var _ repository.RecipientRepository = (*recipientRepo)(nil)

type recipientRepo struct {
	pool *pgxpool.Pool
}

func NewRecipientRepo(pool *pgxpool.Pool) *recipientRepo {
	return &recipientRepo{pool: pool}
}

func (r *recipientRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.PromptPayRecipient, error) {
	const q = `
SELECT id, phone_number, full_name, active, created_at
  FROM promptpay_recipients
 WHERE active
 ORDER BY id
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	rcp := &model.PromptPayRecipient{}
	if err := row.Scan(&rcp.ID, &rcp.PhoneNumber, &rcp.FullName, &rcp.Active, &rcp.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return rcp, nil
}

func (r *recipientRepo) Save(ctx context.Context, tx repository.Tx, rcp *model.PromptPayRecipient) error {
	const q = `
INSERT INTO promptpay_recipients (phone_number, full_name, active, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (phone_number) DO UPDATE SET full_name=$2, active=$3;`
	_, err := execSQL(ctx, r.pool, tx, q, rcp.PhoneNumber, rcp.FullName, rcp.Active, rcp.CreatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}
