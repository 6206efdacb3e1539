package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `
id, user_id, package_id, package_name, package_duration, package_price::text,
is_active, start_date, end_date, created_at, updated_at`

func (r *subscriptionRepo) Insert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  user_id, package_id, package_name, package_duration, package_price,
  is_active, start_date, end_date, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		s.UserID, s.PackageID, s.PackageName, s.PackageDuration, s.PackagePrice.String(),
		s.IsActive, s.StartDate, s.EndDate, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&s.ID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
UPDATE subscriptions
   SET is_active=$2, start_date=$3, end_date=$4, updated_at=$5
 WHERE id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, s.ID, s.IsActive, s.StartDate, s.EndDate, s.UpdatedAt)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Subscription, error) {
	q := fmt.Sprintf(`
SELECT %s FROM subscriptions
 WHERE user_id=$1 AND is_active AND end_date > $2
 ORDER BY created_at DESC
 LIMIT 1;`, subscriptionColumns)
	return r.queryOne(ctx, tx, q, userID, now)
}

func (r *subscriptionRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	q := fmt.Sprintf(`
SELECT %s FROM subscriptions
 WHERE user_id=$1
 ORDER BY created_at DESC
 LIMIT 1;`, subscriptionColumns)
	return r.queryOne(ctx, tx, q, userID)
}

func (r *subscriptionRepo) FindExpiredByUser(ctx context.Context, tx repository.Tx, userID string, now time.Time) (*model.Subscription, error) {
	// The is_active flag is ignored here on purpose: a lapsed row the
	// sweep has not reached yet is still a renewal candidate.
	q := fmt.Sprintf(`
SELECT %s FROM subscriptions
 WHERE user_id=$1 AND end_date <= $2
 ORDER BY end_date DESC
 LIMIT 1;`, subscriptionColumns)
	return r.queryOne(ctx, tx, q, userID, now)
}

func (r *subscriptionRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	const q = `UPDATE subscriptions SET is_active=false, updated_at=$1 WHERE is_active AND end_date <= $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return 0, err
		default:
			return 0, domain.ErrOperationFailed
		}
	}
	return tag.RowsAffected(), nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	s := &model.Subscription{}
	var price string
	if err := row.Scan(&s.ID, &s.UserID, &s.PackageID, &s.PackageName, &s.PackageDuration, &price,
		&s.IsActive, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if s.PackagePrice, err = decimal.NewFromString(price); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
