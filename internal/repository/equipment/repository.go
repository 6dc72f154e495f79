package equipment

import (
	"context"

	"yardops/internal/domain"
)

// Repository exposes equipment records. The core only reads them; Upsert
// exists for seeding.
type Repository interface {
	List(ctx context.Context) ([]domain.Equipment, error)
	Upsert(ctx context.Context, e domain.Equipment) (*domain.Equipment, error)
}
