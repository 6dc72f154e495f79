// Package grouping is the group assignment board. It keeps Customer.GroupID
// and CustomerGroup.CustomerIDs pointing at each other: every multi-write
// sequence runs as a saga so a failure never leaves a one-sided reference.
package grouping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/drag"
	"yardops/internal/gateway"
	"yardops/internal/logging"
	"yardops/internal/notify"
	"yardops/internal/saga"
	"yardops/internal/store"
	"yardops/internal/validation"
)

type groupGateway interface {
	UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	CreateCustomerGroup(ctx context.Context, g gateway.NewGroup) (*domain.CustomerGroup, error)
	UpdateCustomerGroup(ctx context.Context, g domain.CustomerGroup) (*domain.CustomerGroup, error)
	DeleteCustomerGroup(ctx context.Context, id string) error
	AddCustomerToGroup(ctx context.Context, groupID, customerID string) error
	RemoveCustomerFromGroup(ctx context.Context, groupID, customerID string) error
}

type Service struct {
	gw       groupGateway
	stores   *store.Stores
	notifier notify.Notifier
	logger   *zap.SugaredLogger

	mu   sync.Mutex
	drag drag.Machine[string, string]
}

func New(gw groupGateway, stores *store.Stores, notifier notify.Notifier, logger *zap.SugaredLogger) *Service {
	return &Service{
		gw:       gw,
		stores:   stores,
		notifier: notifier,
		logger:   logging.OrDiscard(logger),
	}
}

// Form is the create/edit payload for a group.
type Form struct {
	Name            string `json:"name" validate:"notblank,max=120"`
	WorkTimeMinutes int    `json:"workTimeMinutes" validate:"gte=0"`
	Color           string `json:"color" validate:"omitempty,rgbcolor"`
	Notes           string `json:"notes" validate:"max=2000"`
}

func (f Form) normalized() Form {
	f.Name = strings.TrimSpace(f.Name)
	f.Color = strings.TrimSpace(f.Color)
	if f.Color == "" {
		f.Color = domain.DefaultGroupColor
	}
	f.Notes = strings.TrimSpace(f.Notes)
	return f
}

// CreateGroup validates the form locally and creates an empty group.
func (s *Service) CreateGroup(ctx context.Context, form Form) (*domain.CustomerGroup, error) {
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	form = form.normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.gw.CreateCustomerGroup(ctx, gateway.NewGroup{
		Name:            form.Name,
		WorkTimeMinutes: form.WorkTimeMinutes,
		Color:           form.Color,
		Notes:           form.Notes,
	})
	if err != nil {
		return nil, s.fail(err, "Failed to create group %s", form.Name)
	}
	s.stores.Groups.Put(*created)
	s.refreshGroups(ctx)
	s.notifier.Success("Created group %s", created.Name)
	return created, nil
}

// UpdateGroup replaces the editable fields and keeps the current members.
func (s *Service) UpdateGroup(ctx context.Context, id string, form Form) (*domain.CustomerGroup, error) {
	if err := validation.Check(form); err != nil {
		return nil, err
	}
	form = form.normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.stores.Groups.Get(id)
	if !ok {
		return nil, s.fail(fmt.Errorf("group %s: %w", id, domain.ErrNotFound), "Failed to update group %s", form.Name)
	}
	current.Name = form.Name
	current.WorkTimeMinutes = form.WorkTimeMinutes
	current.Color = form.Color
	current.Notes = form.Notes

	updated, err := s.gw.UpdateCustomerGroup(ctx, current)
	if err != nil {
		return nil, s.fail(err, "Failed to update group %s", form.Name)
	}
	s.stores.Groups.Put(*updated)
	s.refreshGroups(ctx)
	s.notifier.Success("Updated group %s", updated.Name)
	return updated, nil
}

// AssignToGroup points the customer at the group and adds it to the group's
// members, leaving any previous group first. Re-assigning to the current
// group is a valid idempotent operation.
func (s *Service) AssignToGroup(ctx context.Context, customerID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.stores.Customers.Get(customerID)
	if !ok {
		return s.fail(fmt.Errorf("customer %s: %w", customerID, domain.ErrNotFound), "Failed to add customer %s to a group: customer not found", customerID)
	}
	group, ok := s.stores.Groups.Get(groupID)
	if !ok {
		return s.fail(fmt.Errorf("group %s: %w", groupID, domain.ErrNotFound), "Failed to add %s to group %s: group not found", customer.Name, groupID)
	}

	original := customer.Clone()
	assigned := customer.Clone()
	assigned.GroupID = &group.ID

	tx := saga.New("assignToGroup", s.logger).Add(saga.Step{
		Name: "updateCustomer",
		Do: func(ctx context.Context) error {
			_, err := s.gw.UpdateCustomer(ctx, assigned)
			return err
		},
		Compensate: func(ctx context.Context) error {
			_, err := s.gw.UpdateCustomer(ctx, original)
			return err
		},
	})
	if original.GroupID != nil && *original.GroupID != group.ID {
		prev := *original.GroupID
		tx.Add(saga.Step{
			Name: "removeCustomerFromGroup",
			Do: func(ctx context.Context) error {
				return s.gw.RemoveCustomerFromGroup(ctx, prev, customer.ID)
			},
			Compensate: func(ctx context.Context) error {
				return s.gw.AddCustomerToGroup(ctx, prev, customer.ID)
			},
		})
	}
	tx.Add(saga.Step{
		Name: "addCustomerToGroup",
		Do: func(ctx context.Context) error {
			return s.gw.AddCustomerToGroup(ctx, group.ID, customer.ID)
		},
	})

	if err := tx.Run(ctx); err != nil {
		return s.fail(err, "Failed to add %s to %s", customer.Name, group.Name)
	}

	s.refreshBoth(ctx)
	s.logger.Infow("customer assigned to group", "customer_id", customer.ID, "group_id", group.ID)
	s.notifier.Success("Added %s to %s", customer.Name, group.Name)
	return nil
}

// RemoveFromGroup clears the customer's group and drops it from the members.
func (s *Service) RemoveFromGroup(ctx context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer, ok := s.stores.Customers.Get(customerID)
	if !ok {
		return s.fail(fmt.Errorf("customer %s: %w", customerID, domain.ErrNotFound), "Failed to remove customer %s from its group: customer not found", customerID)
	}
	if customer.GroupID == nil {
		return domain.NewValidationError("groupId", customer.Name+" is not in a group")
	}
	groupID := *customer.GroupID
	groupName := groupID
	if g, ok := s.stores.Groups.Get(groupID); ok {
		groupName = g.Name
	}

	original := customer.Clone()
	cleared := customer.Clone()
	cleared.GroupID = nil

	err := saga.New("removeFromGroup", s.logger).
		Add(saga.Step{
			Name: "updateCustomer",
			Do: func(ctx context.Context) error {
				_, err := s.gw.UpdateCustomer(ctx, cleared)
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.gw.UpdateCustomer(ctx, original)
				return err
			},
		}).
		Add(saga.Step{
			Name: "removeCustomerFromGroup",
			Do: func(ctx context.Context) error {
				return s.gw.RemoveCustomerFromGroup(ctx, groupID, customer.ID)
			},
		}).
		Run(ctx)
	if err != nil {
		return s.fail(err, "Failed to remove %s from %s", customer.Name, groupName)
	}

	s.refreshBoth(ctx)
	s.notifier.Success("Removed %s from %s", customer.Name, groupName)
	return nil
}

// DeleteGroup clears the group on every member, then deletes the group.
// Without confirmation it returns *domain.ConfirmationRequiredError and
// touches nothing.
func (s *Service) DeleteGroup(ctx context.Context, groupID string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.stores.Groups.Get(groupID)
	if !ok {
		return s.fail(fmt.Errorf("group %s: %w", groupID, domain.ErrNotFound), "Failed to delete group %s: group not found", groupID)
	}
	members := s.membersOf(group)
	if !confirmed {
		return &domain.ConfirmationRequiredError{
			Prompt: fmt.Sprintf("Delete group %s? %d customer(s) will be ungrouped.", group.Name, len(members)),
		}
	}

	tx := saga.New("deleteGroup", s.logger)
	for _, m := range members {
		original := m.Clone()
		cleared := m.Clone()
		cleared.GroupID = nil
		tx.Add(saga.Step{
			Name: "updateCustomer " + m.ID,
			Do: func(ctx context.Context) error {
				_, err := s.gw.UpdateCustomer(ctx, cleared)
				return err
			},
			Compensate: func(ctx context.Context) error {
				_, err := s.gw.UpdateCustomer(ctx, original)
				return err
			},
		})
	}
	tx.Add(saga.Step{
		Name: "deleteCustomerGroup",
		Do: func(ctx context.Context) error {
			return s.gw.DeleteCustomerGroup(ctx, group.ID)
		},
	})

	if err := tx.Run(ctx); err != nil {
		return s.fail(err, "Failed to delete group %s", group.Name)
	}

	s.stores.Groups.Remove(group.ID)
	s.refreshBoth(ctx)
	s.logger.Infow("group deleted", "group_id", group.ID, "members_cleared", len(members))
	s.notifier.Success("Deleted group %s", group.Name)
	return nil
}

func (s *Service) membersOf(group domain.CustomerGroup) []domain.Customer {
	var out []domain.Customer
	for _, c := range s.stores.Customers.Snapshot() {
		if c.InGroup(group.ID) {
			out = append(out, c)
		}
	}
	return out
}

// BeginDrag arms the slot with a customer.
func (s *Service) BeginDrag(customerID string) error {
	if _, ok := s.stores.Customers.Get(customerID); !ok {
		return fmt.Errorf("customer %s: %w", customerID, domain.ErrNotFound)
	}
	return s.drag.Start(customerID)
}

// HoverGroup records the group under the pointer. An empty id is the
// unassigned zone.
func (s *Service) HoverGroup(groupID string) error {
	return s.drag.Over(groupID)
}

func (s *Service) LeaveGroup() error {
	return s.drag.Leave()
}

// Drop assigns the dragged customer to groupID, or to the hovered group when
// groupID is empty. With neither, the customer leaves its group. The slot is
// cleared before any write.
func (s *Service) Drop(ctx context.Context, groupID string) error {
	customerID, hovered, err := s.drag.Drop()
	if err != nil {
		if errors.Is(err, drag.ErrInvalidTransition) {
			return domain.ErrNoActiveDrag
		}
		return err
	}
	if groupID == "" {
		groupID = hovered
	}
	if groupID == "" {
		c, ok := s.stores.Customers.Get(customerID)
		if ok && c.GroupID == nil {
			return nil
		}
		return s.RemoveFromGroup(ctx, customerID)
	}
	return s.AssignToGroup(ctx, customerID, groupID)
}

func (s *Service) CancelDrag() {
	s.drag.Cancel()
}

func (s *Service) DragState() drag.Snapshot[string, string] {
	return s.drag.Snapshot()
}

func (s *Service) fail(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	s.logger.Errorw("group operation failed", "operation", msg, "error", err)
	s.notifier.Failure("%s", msg)
	return err
}

func (s *Service) refreshGroups(ctx context.Context) {
	if err := s.stores.Groups.Refresh(ctx); err != nil {
		s.logger.Warnw("refresh after write failed", "collection", "groups", "error", err)
	}
}

func (s *Service) refreshBoth(ctx context.Context) {
	if err := s.stores.Customers.Refresh(ctx); err != nil {
		s.logger.Warnw("refresh after write failed", "collection", "customers", "error", err)
	}
	s.refreshGroups(ctx)
}
