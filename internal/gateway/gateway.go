// Package gateway is the persistence contract consumed by the boards, the
// ledger and the entity stores.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"yardops/internal/domain"
)

// NewGroup carries the fields of a group being created. Members start empty.
type NewGroup struct {
	Name            string
	WorkTimeMinutes int
	Color           string
	Notes           string
}

// Gateway is the remote CRUD surface over customers, jobs, groups and equipment.
// Every failure is returned as *Error.
type Gateway interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)

	ListJobs(ctx context.Context) ([]domain.Job, error)
	GetJob(ctx context.Context, id string) (*domain.Job, error)
	AddJob(ctx context.Context, j domain.Job) (*domain.Job, error)
	UpdateJob(ctx context.Context, j domain.Job) (*domain.Job, error)
	DeleteJob(ctx context.Context, id string) error

	ListCustomerGroups(ctx context.Context) ([]domain.CustomerGroup, error)
	GetCustomerGroup(ctx context.Context, id string) (*domain.CustomerGroup, error)
	CreateCustomerGroup(ctx context.Context, g NewGroup) (*domain.CustomerGroup, error)
	UpdateCustomerGroup(ctx context.Context, g domain.CustomerGroup) (*domain.CustomerGroup, error)
	DeleteCustomerGroup(ctx context.Context, id string) error
	AddCustomerToGroup(ctx context.Context, groupID, customerID string) error
	RemoveCustomerFromGroup(ctx context.Context, groupID, customerID string) error

	ListEquipment(ctx context.Context) ([]domain.Equipment, error)
}

// Error marks a failure of a gateway call. Op names the contract operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as *Error for op, or nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsGatewayError reports whether err came from a gateway call.
func IsGatewayError(err error) bool {
	var ge *Error
	return errors.As(err, &ge)
}
