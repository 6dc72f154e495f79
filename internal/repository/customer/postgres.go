package customer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/logging"
	"yardops/internal/repository/pgutil"
)

const customerColumns = `id::text, name, address, price::float8, square_footage, next_service_date, group_id::text`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.SugaredLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger)}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers ORDER BY name ASC, id ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		c, err := r.scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	q := `
INSERT INTO customers (name, address, price, square_footage, next_service_date, group_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q,
		c.Name,
		c.Address,
		c.Price,
		c.SquareFootage,
		pgutil.DateParam(c.NextServiceDate),
		c.GroupID,
	))
}

func (r *postgresRepo) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	q := `
UPDATE customers
SET name = $2,
    address = $3,
    price = $4,
    square_footage = $5,
    next_service_date = $6,
    group_id = $7
WHERE id = $1
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q,
		c.ID,
		c.Name,
		c.Address,
		c.Price,
		c.SquareFootage,
		pgutil.DateParam(c.NextServiceDate),
		c.GroupID,
	))
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var (
		c        domain.Customer
		nextDate *time.Time
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Address,
		&c.Price,
		&c.SquareFootage,
		&nextDate,
		&c.GroupID,
	)
	if err != nil {
		translated := pgutil.TranslateError(err)
		if translated == err {
			r.logger.Errorw("customer repo: scan failed", "error", err)
		}
		return nil, translated
	}
	c.NextServiceDate = pgutil.DateFromScan(nextDate)
	return &c, nil
}
