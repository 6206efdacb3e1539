package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Ensure transactionRepo implements repository.TransactionRepository
var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const transactionColumns = `
id, transaction_id, user_id, package_id, package_name, package_duration,
package_price::text, amount::text, recipient_name, recipient_mobile,
status, transaction_type, created_at, updated_at`

func (r *transactionRepo) Insert(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (
  transaction_id, user_id, package_id, package_name, package_duration,
  package_price, amount, recipient_name, recipient_mobile, status,
  transaction_type, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		t.TransactionID, t.UserID, t.PackageID, t.PackageName, t.PackageDuration,
		t.PackagePrice.String(), t.Amount.String(), t.RecipientName, t.RecipientMobile,
		string(t.Status), string(t.Type), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}
	if err := row.Scan(&t.ID); err != nil {
		// The partial unique index on (user_id, transaction_type) for
		// pending rows turns a duplicate-request race into this error.
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindPending(ctx context.Context, tx repository.Tx, userID string, typ model.TransactionType) (*model.Transaction, error) {
	q := fmt.Sprintf(`
SELECT %s FROM transactions
 WHERE user_id=$1 AND transaction_type=$2 AND status='pending'
 ORDER BY created_at DESC
 LIMIT 1;`, transactionColumns)
	return r.queryOne(ctx, tx, q, userID, string(typ))
}

func (r *transactionRepo) FindByTransactionID(ctx context.Context, tx repository.Tx, transactionID, userID string) (*model.Transaction, error) {
	q := fmt.Sprintf(`
SELECT %s FROM transactions
 WHERE transaction_id=$1 AND ($2='' OR user_id=$2);`, transactionColumns)
	return r.queryOne(ctx, tx, q, transactionID, userID)
}

func (r *transactionRepo) UpdateStatus(ctx context.Context, tx repository.Tx, transactionID string, status model.TransactionStatus, updatedAt time.Time) error {
	const q = `UPDATE transactions SET status=$2, updated_at=$3 WHERE transaction_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, transactionID, string(status), updatedAt)
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

func (r *transactionRepo) List(ctx context.Context, tx repository.Tx, f repository.TransactionFilter) ([]*model.Transaction, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.RecipientName != "" {
		args = append(args, "%"+f.RecipientName+"%")
		where = append(where, fmt.Sprintf("recipient_name ILIKE $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if f.UpdatedOn != "" {
		args = append(args, f.UpdatedOn)
		where = append(where, fmt.Sprintf("updated_at::date = $%d::date", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM transactions WHERE `+cond+`;`, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, f.Offset)
	q := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY updated_at DESC LIMIT $%d OFFSET $%d;`,
		transactionColumns, cond, len(args)-1, len(args))

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, 0, err
		default:
			return nil, 0, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}
	return out, total, nil
}

func (r *transactionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Transaction, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var price, amount, status, typ string
	if err := row.Scan(&t.ID, &t.TransactionID, &t.UserID, &t.PackageID, &t.PackageName, &t.PackageDuration,
		&price, &amount, &t.RecipientName, &t.RecipientMobile, &status, &typ, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if t.PackagePrice, err = decimal.NewFromString(price); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	t.Status = model.TransactionStatus(status)
	t.Type = model.TransactionType(typ)
	return t, nil
}
