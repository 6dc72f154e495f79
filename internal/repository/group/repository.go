package group

import (
	"context"

	"yardops/internal/domain"
)

// Repository persists customer groups and their member lists.
type Repository interface {
	List(ctx context.Context) ([]domain.CustomerGroup, error)
	GetByID(ctx context.Context, id string) (*domain.CustomerGroup, error)
	Create(ctx context.Context, g domain.CustomerGroup) (*domain.CustomerGroup, error)
	Update(ctx context.Context, g domain.CustomerGroup) (*domain.CustomerGroup, error)
	Delete(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, customerID string) error
	RemoveMember(ctx context.Context, groupID, customerID string) error
}
