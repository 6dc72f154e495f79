// Package saga runs a sequence of remote writes and undoes the completed ones
// when a later write fails.
package saga

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"yardops/internal/logging"
)

// Step is one remote write. Compensate may be nil when the step has nothing
// to undo (typically the last step).
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Error reports the failed step. Compensation failures, if any, are joined in
// CompensationErr; when it is non-nil the store may be left inconsistent.
type Error struct {
	Step            string
	Err             error
	CompensationErr error
}

func (e *Error) Error() string {
	if e.CompensationErr != nil {
		return fmt.Sprintf("step %q failed: %v (compensation failed: %v)", e.Step, e.Err, e.CompensationErr)
	}
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Saga collects steps and runs them in order.
type Saga struct {
	name   string
	steps  []Step
	logger *zap.SugaredLogger
}

func New(name string, logger *zap.SugaredLogger) *Saga {
	return &Saga{name: name, logger: logging.OrDiscard(logger)}
}

// Add appends a step and returns the saga for chaining.
func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Len returns the number of steps added.
func (s *Saga) Len() int {
	return len(s.steps)
}

// Run executes the steps sequentially. On the first failure it compensates
// every completed step in reverse order and returns *Error.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.logger.Warnw("saga step failed, compensating",
				"saga", s.name,
				"step", step.Name,
				"completed", i,
				"error", err,
			)
			return &Error{Step: step.Name, Err: err, CompensationErr: s.compensate(ctx, i)}
		}
	}
	return nil
}

// compensate undoes completed steps even when ctx was cancelled mid-run.
func (s *Saga) compensate(ctx context.Context, completed int) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := completed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Errorw("saga compensation failed",
				"saga", s.name,
				"step", step.Name,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("undo %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
