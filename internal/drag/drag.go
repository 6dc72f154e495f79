// Package drag models the single-slot drag-and-drop gesture shared by the boards.
package drag

import (
	"errors"
	"fmt"
	"sync"
)

// State is the phase of the gesture.
type State int

const (
	Idle State = iota
	Dragging
	Hovering
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Hovering:
		return "hovering"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when an event does not apply to the current state.
var ErrInvalidTransition = errors.New("invalid drag transition")

// Snapshot is a read-only view of the machine.
type Snapshot[E, T comparable] struct {
	State  State `json:"-"`
	Entity E     `json:"entity"`
	Target T     `json:"target"`
}

// Machine holds at most one entity in flight and the target under the pointer.
//
//	Idle --Start--> Dragging --Over--> Hovering --Leave--> Dragging
//	Dragging|Hovering --Drop|Cancel--> Idle
type Machine[E, T comparable] struct {
	mu     sync.Mutex
	state  State
	entity E
	target T
}

func (m *Machine[E, T]) Start(entity E) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, m.state)
	}
	m.state = Dragging
	m.entity = entity
	return nil
}

// Over moves the pointer onto target. Moving between targets stays in Hovering.
func (m *Machine[E, T]) Over(target T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Dragging, Hovering:
		m.state = Hovering
		m.target = target
		return nil
	default:
		return fmt.Errorf("%w: over while %s", ErrInvalidTransition, m.state)
	}
}

// Leave moves the pointer off the current target.
func (m *Machine[E, T]) Leave() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case Hovering:
		var zero T
		m.state = Dragging
		m.target = zero
		return nil
	case Dragging:
		return nil
	default:
		return fmt.Errorf("%w: leave while %s", ErrInvalidTransition, m.state)
	}
}

// Drop ends the gesture and returns what was dragged and the hovered target
// (zero when the pointer was not over one). The machine is Idle afterwards.
func (m *Machine[E, T]) Drop() (E, T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var (
		zeroE E
		zeroT T
	)
	if m.state == Idle {
		return zeroE, zeroT, fmt.Errorf("%w: drop while idle", ErrInvalidTransition)
	}
	entity, target := m.entity, m.target
	m.reset()
	return entity, target, nil
}

// Cancel abandons the gesture. Cancelling while idle is a no-op.
func (m *Machine[E, T]) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Machine[E, T]) Snapshot() Snapshot[E, T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot[E, T]{State: m.state, Entity: m.entity, Target: m.target}
}

func (m *Machine[E, T]) reset() {
	var (
		zeroE E
		zeroT T
	)
	m.state = Idle
	m.entity = zeroE
	m.target = zeroT
}
