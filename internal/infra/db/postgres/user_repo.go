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

// Ensure userRepo implements repository.UserRepository
var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (line_user_id, line_name, full_name, phone, birth_date, picture, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (line_user_id) DO UPDATE SET
  line_name=$2, full_name=$3, phone=$4, birth_date=$5, picture=$6, updated_at=$8;`

	_, err := execSQL(ctx, r.pool, tx, q, u.LineUserID, u.LineName, u.FullName, u.Phone, u.BirthDate, u.Picture, u.CreatedAt, u.UpdatedAt)
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

func (r *userRepo) FindBySubject(ctx context.Context, tx repository.Tx, lineUserID string) (*model.User, error) {
	const q = `
SELECT id, line_user_id, line_name, full_name, phone, to_char(birth_date,'YYYY-MM-DD'), picture, created_at, updated_at
  FROM users
 WHERE line_user_id=$1;`

	row, err := pickRow(ctx, r.pool, tx, q, lineUserID)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := row.Scan(&u.ID, &u.LineUserID, &u.LineName, &u.FullName, &u.Phone, &u.BirthDate, &u.Picture, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return u, nil
}

func (r *userRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}
