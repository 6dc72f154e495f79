// Package schedule is the schedule board: the month grid of jobs and
// drag-and-drop rescheduling. Moving a customer's anchor job also moves the
// customer's next service date.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/drag"
	"yardops/internal/logging"
	"yardops/internal/notify"
	"yardops/internal/saga"
	"yardops/internal/store"
)

type writer interface {
	UpdateJob(ctx context.Context, j domain.Job) (*domain.Job, error)
	UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)
}

type Service struct {
	gw       writer
	stores   *store.Stores
	notifier notify.Notifier
	logger   *zap.SugaredLogger
	today    func() domain.Date

	mu   sync.Mutex
	drag drag.Machine[string, domain.Date]

	monthMu sync.Mutex
	month   domain.Date
}

func New(gw writer, stores *store.Stores, notifier notify.Notifier, logger *zap.SugaredLogger) *Service {
	return &Service{
		gw:       gw,
		stores:   stores,
		notifier: notifier,
		logger:   logging.OrDiscard(logger),
		today:    domain.Today,
		month:    domain.Today().FirstOfMonth(),
	}
}

// WithClock overrides the source of "today". Used by tests and the CLI.
func (s *Service) WithClock(today func() domain.Date) *Service {
	s.today = today
	s.monthMu.Lock()
	s.month = today().FirstOfMonth()
	s.monthMu.Unlock()
	return s
}

// RescheduleResult describes a completed move.
type RescheduleResult struct {
	Job          domain.Job       `json:"job"`
	Customer     *domain.Customer `json:"customer,omitempty"`
	AnchorMoved  bool             `json:"anchorMoved"`
	PreviousDate domain.Date      `json:"previousDate"`
	NoOp         bool             `json:"noOp"`
}

// Reschedule moves the job to target. The job write happens first; when the
// job was its customer's anchor the customer's next service date follows, and
// a failed customer write reverts the job. Stores are only touched after
// every write succeeded.
func (s *Service) Reschedule(ctx context.Context, jobID string, target domain.Date) (*RescheduleResult, error) {
	if target.IsZero() {
		return nil, domain.NewValidationError("date", "target date is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.stores.Jobs.Get(jobID)
	if !ok {
		s.notifier.Failure("Failed to move job %s: job not found", jobID)
		return nil, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	if !job.Status.Draggable() {
		s.notifier.Failure("Failed to move job %s: %s jobs cannot be moved", jobID, job.Status)
		return nil, fmt.Errorf("job %s is %s: %w", jobID, job.Status, domain.ErrNotDraggable)
	}
	if job.Date == target {
		return &RescheduleResult{Job: job, PreviousDate: job.Date, NoOp: true}, nil
	}

	customer, hasCustomer := s.stores.Customers.Get(job.CustomerID)
	name := job.CustomerID
	if hasCustomer {
		name = customer.Name
	}
	anchor := hasCustomer && customer.IsAnchor(job.Date)

	moved := job.Clone()
	moved.Date = target

	var (
		savedJob      *domain.Job
		savedCustomer *domain.Customer
	)
	tx := saga.New("reschedule", s.logger).Add(saga.Step{
		Name: "updateJob",
		Do: func(ctx context.Context) error {
			out, err := s.gw.UpdateJob(ctx, moved)
			savedJob = out
			return err
		},
		Compensate: func(ctx context.Context) error {
			_, err := s.gw.UpdateJob(ctx, job)
			return err
		},
	})
	if anchor {
		next := customer.Clone()
		next.NextServiceDate = &target
		tx.Add(saga.Step{
			Name: "updateCustomer",
			Do: func(ctx context.Context) error {
				out, err := s.gw.UpdateCustomer(ctx, next)
				savedCustomer = out
				return err
			},
		})
	}

	if err := tx.Run(ctx); err != nil {
		s.logger.Errorw("reschedule failed",
			"job_id", job.ID,
			"customer", name,
			"from", job.Date.String(),
			"to", target.String(),
			"error", err,
		)
		s.notifier.Failure("Failed to move %s to %s", name, target)
		return nil, err
	}

	s.stores.Jobs.Put(*savedJob)
	s.refresh(ctx, s.stores.Jobs.Refresh, "jobs")
	if savedCustomer != nil {
		s.stores.Customers.Put(*savedCustomer)
		s.refresh(ctx, s.stores.Customers.Refresh, "customers")
	}

	s.logger.Infow("job rescheduled",
		"job_id", job.ID,
		"from", job.Date.String(),
		"to", target.String(),
		"anchor", anchor,
	)
	s.notifier.Success("Moved %s to %s", name, target)

	return &RescheduleResult{
		Job:          *savedJob,
		Customer:     savedCustomer,
		AnchorMoved:  anchor,
		PreviousDate: job.Date,
	}, nil
}

// refresh reconciles a store after a confirmed write. The write already
// succeeded, so a failed re-fetch is only logged.
func (s *Service) refresh(ctx context.Context, fn func(context.Context) error, name string) {
	if err := fn(ctx); err != nil {
		s.logger.Warnw("refresh after write failed", "collection", name, "error", err)
	}
}

// BeginDrag arms the slot with a job. Completed jobs cannot be dragged.
func (s *Service) BeginDrag(jobID string) error {
	job, ok := s.stores.Jobs.Get(jobID)
	if !ok {
		return fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	if !job.Status.Draggable() {
		return fmt.Errorf("job %s is %s: %w", jobID, job.Status, domain.ErrNotDraggable)
	}
	return s.drag.Start(jobID)
}

func (s *Service) DragOver(date domain.Date) error {
	return s.drag.Over(date)
}

func (s *Service) DragLeave() error {
	return s.drag.Leave()
}

// Drop ends the gesture on target, or on the hovered cell when target is
// zero. The slot is cleared before any write, so it never stays armed.
// Dropping outside any cell reschedules nothing.
func (s *Service) Drop(ctx context.Context, target domain.Date) (*RescheduleResult, error) {
	jobID, hovered, err := s.drag.Drop()
	if err != nil {
		if errors.Is(err, drag.ErrInvalidTransition) {
			return nil, domain.ErrNoActiveDrag
		}
		return nil, err
	}
	if target.IsZero() {
		target = hovered
	}
	if target.IsZero() {
		return &RescheduleResult{NoOp: true}, nil
	}
	return s.Reschedule(ctx, jobID, target)
}

func (s *Service) CancelDrag() {
	s.drag.Cancel()
}

func (s *Service) DragState() drag.Snapshot[string, domain.Date] {
	return s.drag.Snapshot()
}

// Month returns the first day of the displayed month.
func (s *Service) Month() domain.Date {
	s.monthMu.Lock()
	defer s.monthMu.Unlock()
	return s.month
}

func (s *Service) SetMonth(d domain.Date) domain.Date {
	s.monthMu.Lock()
	defer s.monthMu.Unlock()
	s.month = d.FirstOfMonth()
	return s.month
}

func (s *Service) NextMonth() domain.Date {
	return s.SetMonth(addMonths(s.Month(), 1))
}

func (s *Service) PrevMonth() domain.Date {
	return s.SetMonth(addMonths(s.Month(), -1))
}

// Calendar renders the displayed month from the current job snapshot.
func (s *Service) Calendar() Calendar {
	return BuildCalendar(s.Month(), s.today(), s.stores.Jobs.Snapshot())
}
