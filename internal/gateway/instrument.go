package gateway

import (
	"context"
	"time"

	"yardops/internal/domain"
	"yardops/internal/metrics"
)

type instrumented struct {
	next Gateway
	m    *metrics.Metrics
}

// Instrument wraps next so every call is counted and timed.
func Instrument(next Gateway, m *metrics.Metrics) Gateway {
	if m == nil {
		return next
	}
	return &instrumented{next: next, m: m}
}

func (g *instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	g.m.GatewayCalls.WithLabelValues(op, outcome).Inc()
	g.m.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (g *instrumented) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	start := time.Now()
	out, err := g.next.ListCustomers(ctx)
	g.observe("listCustomers", start, err)
	return out, err
}

func (g *instrumented) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	start := time.Now()
	out, err := g.next.GetCustomer(ctx, id)
	g.observe("getCustomer", start, err)
	return out, err
}

func (g *instrumented) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	start := time.Now()
	out, err := g.next.UpdateCustomer(ctx, c)
	g.observe("updateCustomer", start, err)
	return out, err
}

func (g *instrumented) ListJobs(ctx context.Context) ([]domain.Job, error) {
	start := time.Now()
	out, err := g.next.ListJobs(ctx)
	g.observe("listJobs", start, err)
	return out, err
}

func (g *instrumented) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	start := time.Now()
	out, err := g.next.GetJob(ctx, id)
	g.observe("getJob", start, err)
	return out, err
}

func (g *instrumented) AddJob(ctx context.Context, j domain.Job) (*domain.Job, error) {
	start := time.Now()
	out, err := g.next.AddJob(ctx, j)
	g.observe("addJob", start, err)
	return out, err
}

func (g *instrumented) UpdateJob(ctx context.Context, j domain.Job) (*domain.Job, error) {
	start := time.Now()
	out, err := g.next.UpdateJob(ctx, j)
	g.observe("updateJob", start, err)
	return out, err
}

func (g *instrumented) DeleteJob(ctx context.Context, id string) error {
	start := time.Now()
	err := g.next.DeleteJob(ctx, id)
	g.observe("deleteJob", start, err)
	return err
}

func (g *instrumented) ListCustomerGroups(ctx context.Context) ([]domain.CustomerGroup, error) {
	start := time.Now()
	out, err := g.next.ListCustomerGroups(ctx)
	g.observe("listCustomerGroups", start, err)
	return out, err
}

func (g *instrumented) GetCustomerGroup(ctx context.Context, id string) (*domain.CustomerGroup, error) {
	start := time.Now()
	out, err := g.next.GetCustomerGroup(ctx, id)
	g.observe("getCustomerGroup", start, err)
	return out, err
}

func (g *instrumented) CreateCustomerGroup(ctx context.Context, in NewGroup) (*domain.CustomerGroup, error) {
	start := time.Now()
	out, err := g.next.CreateCustomerGroup(ctx, in)
	g.observe("createCustomerGroup", start, err)
	return out, err
}

func (g *instrumented) UpdateCustomerGroup(ctx context.Context, grp domain.CustomerGroup) (*domain.CustomerGroup, error) {
	start := time.Now()
	out, err := g.next.UpdateCustomerGroup(ctx, grp)
	g.observe("updateCustomerGroup", start, err)
	return out, err
}

func (g *instrumented) DeleteCustomerGroup(ctx context.Context, id string) error {
	start := time.Now()
	err := g.next.DeleteCustomerGroup(ctx, id)
	g.observe("deleteCustomerGroup", start, err)
	return err
}

func (g *instrumented) AddCustomerToGroup(ctx context.Context, groupID, customerID string) error {
	start := time.Now()
	err := g.next.AddCustomerToGroup(ctx, groupID, customerID)
	g.observe("addCustomerToGroup", start, err)
	return err
}

func (g *instrumented) RemoveCustomerFromGroup(ctx context.Context, groupID, customerID string) error {
	start := time.Now()
	err := g.next.RemoveCustomerFromGroup(ctx, groupID, customerID)
	g.observe("removeCustomerFromGroup", start, err)
	return err
}

func (g *instrumented) ListEquipment(ctx context.Context) ([]domain.Equipment, error) {
	start := time.Now()
	out, err := g.next.ListEquipment(ctx)
	g.observe("listEquipment", start, err)
	return out, err
}
