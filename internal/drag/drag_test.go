package drag

import (
	"errors"
	"testing"
)

func TestMachine_FullGesture(t *testing.T) {
	var m Machine[string, string]
	if err := m.Start("job-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Over("2024-05-01"); err != nil {
		t.Fatalf("over: %v", err)
	}
	if err := m.Over("2024-05-02"); err != nil {
		t.Fatalf("over second target: %v", err)
	}
	snap := m.Snapshot()
	if snap.State != Hovering || snap.Entity != "job-1" || snap.Target != "2024-05-02" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	entity, target, err := m.Drop()
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if entity != "job-1" || target != "2024-05-02" {
		t.Fatalf("unexpected drop result %q %q", entity, target)
	}
	if m.Snapshot().State != Idle {
		t.Fatalf("expected idle after drop")
	}
}

func TestMachine_LeaveClearsTarget(t *testing.T) {
	var m Machine[string, string]
	_ = m.Start("c1")
	_ = m.Over("g1")
	if err := m.Leave(); err != nil {
		t.Fatalf("leave: %v", err)
	}
	snap := m.Snapshot()
	if snap.State != Dragging || snap.Target != "" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestMachine_RejectsInvalidTransitions(t *testing.T) {
	var m Machine[string, string]
	if _, _, err := m.Drop(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on idle drop, got %v", err)
	}
	if err := m.Over("x"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition on idle over, got %v", err)
	}
	_ = m.Start("a")
	if err := m.Start("b"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected single-slot enforcement, got %v", err)
	}
}

func TestMachine_CancelAlwaysIdles(t *testing.T) {
	var m Machine[string, string]
	m.Cancel()
	_ = m.Start("a")
	_ = m.Over("t")
	m.Cancel()
	if snap := m.Snapshot(); snap.State != Idle || snap.Entity != "" || snap.Target != "" {
		t.Fatalf("expected reset, got %+v", snap)
	}
}
