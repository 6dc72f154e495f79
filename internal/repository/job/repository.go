package job

import (
	"context"

	"yardops/internal/domain"
)

// Repository persists and fetches jobs.
type Repository interface {
	List(ctx context.Context) ([]domain.Job, error)
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	Create(ctx context.Context, j domain.Job) (*domain.Job, error)
	Update(ctx context.Context, j domain.Job) (*domain.Job, error)
	Delete(ctx context.Context, id string) error
}
