package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"yardops/internal/domain"
	"yardops/internal/gateway/memory"
)

func seeded(t *testing.T) (*memory.Gateway, *Stores) {
	t.Helper()
	mem := memory.New()
	d := domain.MustParseDate("2024-05-07")
	c := mem.PutCustomer(domain.Customer{Name: "Alice Smith", Price: 50, NextServiceDate: &d})
	mem.PutJob(domain.Job{CustomerID: c.ID, Date: d, Status: domain.JobScheduled})
	mem.PutGroup(domain.CustomerGroup{Name: "North"})
	mem.PutEquipment(domain.Equipment{Name: "Mower"})
	return mem, New(mem, nil)
}

func TestRefreshAll_LoadsEveryCollection(t *testing.T) {
	_, s := seeded(t)
	if s.Ready() {
		t.Fatalf("expected not ready before refresh")
	}
	if err := s.RefreshAll(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !s.Ready() {
		t.Fatalf("expected ready after refresh")
	}
	if s.Customers.Len() != 1 || s.Jobs.Len() != 1 || s.Groups.Len() != 1 || s.Equipment.Len() != 1 {
		t.Fatalf("unexpected sizes")
	}
}

func TestRefresh_IsIdempotent(t *testing.T) {
	_, s := seeded(t)
	ctx := context.Background()
	if err := s.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	first := s.Customers.Snapshot()
	firstJobs := s.Jobs.Snapshot()
	if err := s.RefreshAll(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !reflect.DeepEqual(first, s.Customers.Snapshot()) {
		t.Fatalf("customers changed across refreshes")
	}
	if !reflect.DeepEqual(firstJobs, s.Jobs.Snapshot()) {
		t.Fatalf("jobs changed across refreshes")
	}
}

func TestSnapshot_IsDetached(t *testing.T) {
	_, s := seeded(t)
	_ = s.RefreshAll(context.Background())

	snap := s.Customers.Snapshot()
	*snap[0].NextServiceDate = domain.MustParseDate("2030-01-01")
	snap[0].Name = "changed"

	got, _ := s.Customers.Get(snap[0].ID)
	if got.Name != "Alice Smith" || got.NextServiceDate.String() != "2024-05-07" {
		t.Fatalf("store mutated through snapshot: %+v", got)
	}
}

func TestRefresh_FailureKeepsContents(t *testing.T) {
	mem, s := seeded(t)
	ctx := context.Background()
	_ = s.RefreshAll(ctx)

	mem.FailOn("listJobs", errors.New("down"))
	if err := s.Jobs.Refresh(ctx); err == nil {
		t.Fatalf("expected refresh error")
	}
	if s.Jobs.Len() != 1 {
		t.Fatalf("expected previous contents kept")
	}
}

func TestOnChange_FiresOnPutAndRefresh(t *testing.T) {
	_, s := seeded(t)
	calls := 0
	s.Groups.OnChange(func() { calls++ })

	_ = s.Groups.Refresh(context.Background())
	s.Groups.Put(domain.CustomerGroup{ID: "g2", Name: "South"})
	s.Groups.Remove("g2")
	s.Groups.Remove("missing")

	if calls != 3 {
		t.Fatalf("expected 3 change events, got %d", calls)
	}
}
