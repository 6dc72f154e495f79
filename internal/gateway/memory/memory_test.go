package memory

import (
	"context"
	"errors"
	"testing"

	"yardops/internal/domain"
	"yardops/internal/gateway"
)

func TestGateway_FailOnAndHeal(t *testing.T) {
	ctx := context.Background()
	g := New()
	boom := errors.New("boom")
	g.FailOn("listJobs", boom)

	_, err := g.ListJobs(ctx)
	if !errors.Is(err, boom) || !gateway.IsGatewayError(err) {
		t.Fatalf("expected injected gateway error, got %v", err)
	}

	g.Heal("listJobs")
	if _, err := g.ListJobs(ctx); err != nil {
		t.Fatalf("expected healed call to succeed, got %v", err)
	}
}

func TestGateway_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	g := New()
	grp := g.PutGroup(domain.CustomerGroup{Name: "North"})
	c := g.PutCustomer(domain.Customer{Name: "Ann"})
	if err := g.AddCustomerToGroup(ctx, grp.ID, c.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	groups, err := g.ListCustomerGroups(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	groups[0].CustomerIDs[0] = "tampered"

	again, _ := g.GetCustomerGroup(ctx, grp.ID)
	if again.CustomerIDs[0] != c.ID {
		t.Fatalf("internal state leaked through snapshot: %v", again.CustomerIDs)
	}
}

func TestGateway_MembershipRules(t *testing.T) {
	ctx := context.Background()
	g := New()
	grp := g.PutGroup(domain.CustomerGroup{Name: "North"})
	c := g.PutCustomer(domain.Customer{Name: "Ann"})

	if err := g.AddCustomerToGroup(ctx, "missing", c.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for missing group, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := g.AddCustomerToGroup(ctx, grp.ID, c.ID); err != nil {
			t.Fatalf("add #%d: %v", i, err)
		}
	}
	got, _ := g.GetCustomerGroup(ctx, grp.ID)
	if len(got.CustomerIDs) != 1 {
		t.Fatalf("expected set semantics, got %v", got.CustomerIDs)
	}

	gid := grp.ID
	c.GroupID = &gid
	if _, err := g.UpdateCustomer(ctx, c); err != nil {
		t.Fatalf("update customer: %v", err)
	}
	if err := g.DeleteCustomerGroup(ctx, grp.ID); err != nil {
		t.Fatalf("delete group: %v", err)
	}
	after, _ := g.GetCustomer(ctx, c.ID)
	if after.GroupID != nil {
		t.Fatalf("expected dangling group reference to be cleared")
	}
}

func TestGateway_UpdateGroupKeepsMembers(t *testing.T) {
	ctx := context.Background()
	g := New()
	grp := g.PutGroup(domain.CustomerGroup{Name: "North"})
	c := g.PutCustomer(domain.Customer{Name: "Ann"})
	if err := g.AddCustomerToGroup(ctx, grp.ID, c.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	stale := grp
	stale.Name = "North Side"
	stale.CustomerIDs = nil
	out, err := g.UpdateCustomerGroup(ctx, stale)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Name != "North Side" || !out.HasMember(c.ID) {
		t.Fatalf("unexpected group %+v", out)
	}
	stored, _ := g.GetCustomerGroup(ctx, grp.ID)
	if !stored.HasMember(c.ID) {
		t.Fatalf("stored members lost: %v", stored.CustomerIDs)
	}
}

func TestGateway_AddJobRequiresCustomer(t *testing.T) {
	g := New()
	_, err := g.AddJob(context.Background(), domain.Job{CustomerID: "nobody", Date: domain.MustParseDate("2024-01-01"), Status: domain.JobScheduled})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGateway_MutationCalls(t *testing.T) {
	ctx := context.Background()
	g := New()
	c := g.PutCustomer(domain.Customer{Name: "Ann"})
	_, _ = g.ListCustomers(ctx)
	_, _ = g.UpdateCustomer(ctx, c)
	_, _ = g.GetCustomer(ctx, c.ID)

	calls := g.MutationCalls()
	if len(calls) != 1 || calls[0] != "updateCustomer" {
		t.Fatalf("unexpected mutation calls %v", calls)
	}
}
