package group

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/logging"
	"yardops/internal/repository/pgutil"
)

const groupSelect = `
SELECT g.id::text, g.name, g.work_time_minutes, g.color, g.notes,
       COALESCE(array_agg(m.customer_id::text ORDER BY m.added_at, m.customer_id)
                FILTER (WHERE m.customer_id IS NOT NULL), '{}') AS customer_ids
FROM customer_groups g
LEFT JOIN customer_group_members m ON m.group_id = g.id
`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.SugaredLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger)}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.CustomerGroup, error) {
	rows, err := r.pool.Query(ctx, groupSelect+`GROUP BY g.id ORDER BY g.name ASC, g.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CustomerGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.CustomerGroup, error) {
	g, err := scanGroup(r.pool.QueryRow(ctx, groupSelect+`WHERE g.id = $1 GROUP BY g.id`, id))
	if err != nil {
		return nil, pgutil.TranslateError(err)
	}
	return g, nil
}

func (r *postgresRepo) Create(ctx context.Context, g domain.CustomerGroup) (*domain.CustomerGroup, error) {
	const q = `
INSERT INTO customer_groups (name, work_time_minutes, color, notes)
VALUES ($1, $2, $3, $4)
RETURNING id::text
`
	var id string
	if err := r.pool.QueryRow(ctx, q, g.Name, g.WorkTimeMinutes, g.Color, g.Notes).Scan(&id); err != nil {
		r.logger.Errorw("group repo: create failed", "name", g.Name, "error", err)
		return nil, pgutil.TranslateError(err)
	}
	return r.GetByID(ctx, id)
}

// Update writes the group's attributes. Membership only changes through
// AddMember and RemoveMember, so g.CustomerIDs is ignored and the stored
// member list is returned.
func (r *postgresRepo) Update(ctx context.Context, g domain.CustomerGroup) (*domain.CustomerGroup, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE customer_groups
SET name = $2, work_time_minutes = $3, color = $4, notes = $5
WHERE id = $1
`, g.ID, g.Name, g.WorkTimeMinutes, g.Color, g.Notes)
	if err != nil {
		r.logger.Errorw("group repo: update failed", "id", g.ID, "error", err)
		return nil, pgutil.TranslateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, g.ID)
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM customer_groups WHERE id = $1`, id)
	if err != nil {
		return pgutil.TranslateError(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddMember is idempotent: adding an existing member is a no-op.
func (r *postgresRepo) AddMember(ctx context.Context, groupID, customerID string) error {
	return addMember(ctx, r.pool, groupID, customerID)
}

// RemoveMember is idempotent: removing an absent member is a no-op, but the
// group itself must exist.
func (r *postgresRepo) RemoveMember(ctx context.Context, groupID, customerID string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customer_groups WHERE id = $1)`, groupID).Scan(&exists); err != nil {
		return pgutil.TranslateError(err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM customer_group_members WHERE group_id = $1 AND customer_id = $2`, groupID, customerID)
	return pgutil.TranslateError(err)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func addMember(ctx context.Context, db execer, groupID, customerID string) error {
	_, err := db.Exec(ctx, `
INSERT INTO customer_group_members (group_id, customer_id)
VALUES ($1, $2)
ON CONFLICT (group_id, customer_id) DO NOTHING
`, groupID, customerID)
	return pgutil.TranslateError(err)
}

func scanGroup(row pgx.Row) (*domain.CustomerGroup, error) {
	var g domain.CustomerGroup
	if err := row.Scan(&g.ID, &g.Name, &g.WorkTimeMinutes, &g.Color, &g.Notes, &g.CustomerIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if g.CustomerIDs == nil {
		g.CustomerIDs = []string{}
	}
	return &g, nil
}
