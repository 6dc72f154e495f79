package equipment

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"yardops/internal/domain"
	"yardops/internal/repository/pgutil"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Equipment, error) {
	const q = `
SELECT id::text, name, next_maintenance_date, hours_used::float8, alert_threshold::float8
FROM equipment
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Equipment
	for rows.Next() {
		var (
			e    domain.Equipment
			next *time.Time
		)
		if err := rows.Scan(&e.ID, &e.Name, &next, &e.HoursUsed, &e.AlertThreshold); err != nil {
			return nil, err
		}
		e.NextMaintenanceDate = pgutil.DateFromScan(next)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, e domain.Equipment) (*domain.Equipment, error) {
	const q = `
INSERT INTO equipment (name, next_maintenance_date, hours_used, alert_threshold)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE
SET next_maintenance_date = EXCLUDED.next_maintenance_date,
    hours_used = EXCLUDED.hours_used,
    alert_threshold = EXCLUDED.alert_threshold
RETURNING id::text
`
	out := e.Clone()
	if err := r.pool.QueryRow(ctx, q, e.Name, pgutil.DateParam(e.NextMaintenanceDate), e.HoursUsed, e.AlertThreshold).Scan(&out.ID); err != nil {
		return nil, pgutil.TranslateError(err)
	}
	return &out, nil
}
