package job

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/logging"
	"yardops/internal/repository/pgutil"
)

const jobColumns = `id::text, customer_id::text, date, status, scheduled_time,
       total_time, mow_time, trim_time, edge_time, blow_time, drive_time, notes`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.SugaredLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger)}
}

// List returns jobs in load order (insertion order).
func (r *postgresRepo) List(ctx context.Context) ([]domain.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		j, err := r.scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	return r.scanJob(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) Create(ctx context.Context, j domain.Job) (*domain.Job, error) {
	q := `
INSERT INTO jobs (customer_id, date, status, scheduled_time, total_time, mow_time, trim_time, edge_time, blow_time, drive_time, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + jobColumns
	return r.scanJob(r.pool.QueryRow(ctx, q,
		j.CustomerID,
		j.Date.Time(),
		j.Status.String(),
		j.ScheduledTime,
		j.TotalTime,
		j.MowTime,
		j.TrimTime,
		j.EdgeTime,
		j.BlowTime,
		j.DriveTime,
		j.Notes,
	))
}

func (r *postgresRepo) Update(ctx context.Context, j domain.Job) (*domain.Job, error) {
	q := `
UPDATE jobs
SET customer_id = $2,
    date = $3,
    status = $4,
    scheduled_time = $5,
    total_time = $6,
    mow_time = $7,
    trim_time = $8,
    edge_time = $9,
    blow_time = $10,
    drive_time = $11,
    notes = $12
WHERE id = $1
RETURNING ` + jobColumns
	return r.scanJob(r.pool.QueryRow(ctx, q,
		j.ID,
		j.CustomerID,
		j.Date.Time(),
		j.Status.String(),
		j.ScheduledTime,
		j.TotalTime,
		j.MowTime,
		j.TrimTime,
		j.EdgeTime,
		j.BlowTime,
		j.DriveTime,
		j.Notes,
	))
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return pgutil.TranslateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		j      domain.Job
		date   time.Time
		status string
	)
	err := row.Scan(
		&j.ID,
		&j.CustomerID,
		&date,
		&status,
		&j.ScheduledTime,
		&j.TotalTime,
		&j.MowTime,
		&j.TrimTime,
		&j.EdgeTime,
		&j.BlowTime,
		&j.DriveTime,
		&j.Notes,
	)
	if err != nil {
		translated := pgutil.TranslateError(err)
		if translated == err {
			r.logger.Errorw("job repo: scan failed", "error", err)
		}
		return nil, translated
	}
	j.Date = domain.DateOf(date)
	j.Status, err = domain.ParseJobStatus(status)
	if err != nil {
		r.logger.Errorw("job repo: decode status", "job_id", j.ID, "status", status)
		return nil, fmt.Errorf("job %s: %w", j.ID, err)
	}
	return &j, nil
}
