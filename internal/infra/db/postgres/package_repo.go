package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"line-fortune-subscription/internal/domain"
	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Ensure packageRepo implements repository.PackageRepository
var _ repository.PackageRepository = (*packageRepo)(nil)

type packageRepo struct {
	pool *pgxpool.Pool
}

func NewPackageRepo(pool *pgxpool.Pool) *packageRepo {
	return &packageRepo{pool: pool}
}

const packageColumns = `id, name, display_name, duration_days, price::text, active, created_at`

func (r *packageRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Package, error) {
	return r.queryOne(ctx, tx, `SELECT `+packageColumns+` FROM packages WHERE id=$1;`, id)
}

func (r *packageRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.Package, error) {
	return r.queryOne(ctx, tx, `SELECT `+packageColumns+` FROM packages WHERE active ORDER BY id LIMIT 1;`)
}

func (r *packageRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Package, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT `+packageColumns+` FROM packages WHERE active ORDER BY id;`)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()
	var out []*model.Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *packageRepo) Save(ctx context.Context, tx repository.Tx, p *model.Package) error {
	const q = `
INSERT INTO packages (name, display_name, duration_days, price, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (name) DO UPDATE SET
  display_name=$2, duration_days=$3, price=$4, active=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, p.Name, p.DisplayName, p.DurationDays, p.Price.String(), p.Active, p.CreatedAt)
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

func (r *packageRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Package, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	return scanPackage(row)
}

func scanPackage(row pgx.Row) (*model.Package, error) {
	p := &model.Package{}
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.DisplayName, &p.DurationDays, &price, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}
