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

// Ensure fortuneRepo implements repository.FortuneRepository
var _ repository.FortuneRepository = (*fortuneRepo)(nil)

type fortuneRepo struct {
	pool *pgxpool.Pool
}

func NewFortuneRepo(pool *pgxpool.Pool) *fortuneRepo {
	return &fortuneRepo{pool: pool}
}

func (r *fortuneRepo) Insert(ctx context.Context, tx repository.Tx, f *model.DailyFortune) error {
	const q = `
INSERT INTO daily_fortunes (user_id, fortune_date, category, zodiac, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id;`
	row, err := pickRow(ctx, r.pool, tx, q, f.UserID, f.FortuneDate, f.Category, f.Zodiac, f.Content, f.CreatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&f.ID); err != nil {
		// one row per (user, date)
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *fortuneRepo) FindByUserAndDate(ctx context.Context, tx repository.Tx, userID, date string) (*model.DailyFortune, error) {
	const q = `
SELECT id, user_id, to_char(fortune_date,'YYYY-MM-DD'), category, zodiac, content, created_at
  FROM daily_fortunes
 WHERE user_id=$1 AND fortune_date=$2::date;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, date)
	if err != nil {
		return nil, err
	}
	f := &model.DailyFortune{}
	if err := row.Scan(&f.ID, &f.UserID, &f.FortuneDate, &f.Category, &f.Zodiac, &f.Content, &f.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return f, nil
}

func (r *fortuneRepo) FindTodayRecipients(ctx context.Context, tx repository.Tx, date string) ([]*model.FortuneRecipient, error) {
	// Activity is re-derived from the end date in the join; the is_active
	// flag alone is never trusted.
	const q = `
SELECT u.line_user_id, u.line_name, u.full_name, f.category, f.zodiac, f.content
  FROM daily_fortunes f
  JOIN users u ON u.line_user_id = f.user_id
 WHERE f.fortune_date = $1::date
   AND EXISTS (
         SELECT 1 FROM subscriptions s
          WHERE s.user_id = f.user_id AND s.is_active AND s.end_date > NOW()
       )
 ORDER BY u.id;`
	rows, err := queryRows(ctx, r.pool, tx, q, date)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.FortuneRecipient
	for rows.Next() {
		rec := &model.FortuneRecipient{}
		if err := rows.Scan(&rec.UserID, &rec.LineName, &rec.FullName, &rec.Category, &rec.Zodiac, &rec.Content); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}
