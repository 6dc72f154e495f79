// Package memory is an in-process Gateway used in development mode and tests.
// It mirrors the Postgres schema's referential rules and can be told to fail
// individual operations.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"yardops/internal/domain"
	"yardops/internal/gateway"
)

// Gateway keeps every collection in insertion order.
type Gateway struct {
	mu sync.Mutex

	customers []domain.Customer
	jobs      []domain.Job
	groups    []domain.CustomerGroup
	equipment []domain.Equipment

	failures map[string]error
	calls    []string
}

var _ gateway.Gateway = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{failures: make(map[string]error)}
}

// FailOn makes every subsequent call to op return err until Heal is called.
func (g *Gateway) FailOn(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

// Heal clears injected failures for the given ops, or all when none given.
func (g *Gateway) Heal(ops ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(ops) == 0 {
		g.failures = make(map[string]error)
		return
	}
	for _, op := range ops {
		delete(g.failures, op)
	}
}

// Calls returns the operations invoked so far, in order.
func (g *Gateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// MutationCalls returns invoked operations excluding reads.
func (g *Gateway) MutationCalls() []string {
	var out []string
	for _, c := range g.Calls() {
		if strings.HasPrefix(c, "list") || strings.HasPrefix(c, "get") {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ResetCalls clears the call log.
func (g *Gateway) ResetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}

func (g *Gateway) begin(op string) error {
	g.calls = append(g.calls, op)
	if err, ok := g.failures[op]; ok {
		return gateway.Wrap(op, err)
	}
	return nil
}

// PutCustomer stores c directly, assigning an id when empty.
func (g *Gateway) PutCustomer(c domain.Customer) domain.Customer {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if i := g.customerIndex(c.ID); i >= 0 {
		g.customers[i] = c.Clone()
	} else {
		g.customers = append(g.customers, c.Clone())
	}
	return c.Clone()
}

// PutJob stores j directly, assigning an id when empty.
func (g *Gateway) PutJob(j domain.Job) domain.Job {
	g.mu.Lock()
	defer g.mu.Unlock()
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if i := g.jobIndex(j.ID); i >= 0 {
		g.jobs[i] = j.Clone()
	} else {
		g.jobs = append(g.jobs, j.Clone())
	}
	return j.Clone()
}

// PutGroup stores grp directly, assigning an id when empty.
func (g *Gateway) PutGroup(grp domain.CustomerGroup) domain.CustomerGroup {
	g.mu.Lock()
	defer g.mu.Unlock()
	if grp.ID == "" {
		grp.ID = uuid.New().String()
	}
	grp = grp.Clone()
	if i := g.groupIndex(grp.ID); i >= 0 {
		g.groups[i] = grp
	} else {
		g.groups = append(g.groups, grp)
	}
	return grp.Clone()
}

// PutEquipment stores e directly, assigning an id when empty.
func (g *Gateway) PutEquipment(e domain.Equipment) domain.Equipment {
	g.mu.Lock()
	defer g.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	g.equipment = append(g.equipment, e.Clone())
	return e.Clone()
}

func (g *Gateway) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("listCustomers"); err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0, len(g.customers))
	for _, c := range g.customers {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (g *Gateway) GetCustomer(_ context.Context, id string) (*domain.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("getCustomer"); err != nil {
		return nil, err
	}
	i := g.customerIndex(id)
	if i < 0 {
		return nil, gateway.Wrap("getCustomer", domain.ErrNotFound)
	}
	c := g.customers[i].Clone()
	return &c, nil
}

func (g *Gateway) UpdateCustomer(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "updateCustomer"
	if err := g.begin(op); err != nil {
		return nil, err
	}
	i := g.customerIndex(c.ID)
	if i < 0 {
		return nil, gateway.Wrap(op, domain.ErrNotFound)
	}
	if c.GroupID != nil && g.groupIndex(*c.GroupID) < 0 {
		return nil, gateway.Wrap(op, domain.ErrNotFound)
	}
	g.customers[i] = c.Clone()
	out := c.Clone()
	return &out, nil
}

func (g *Gateway) ListJobs(_ context.Context) ([]domain.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("listJobs"); err != nil {
		return nil, err
	}
	out := make([]domain.Job, 0, len(g.jobs))
	for _, j := range g.jobs {
		out = append(out, j.Clone())
	}
	return out, nil
}

func (g *Gateway) GetJob(_ context.Context, id string) (*domain.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("getJob"); err != nil {
		return nil, err
	}
	i := g.jobIndex(id)
	if i < 0 {
		return nil, gateway.Wrap("getJob", domain.ErrNotFound)
	}
	j := g.jobs[i].Clone()
	return &j, nil
}

func (g *Gateway) AddJob(_ context.Context, j domain.Job) (*domain.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "addJob"
	if err := g.begin(op); err != nil {
		return nil, err
	}
	if g.customerIndex(j.CustomerID) < 0 {
		return nil, gateway.Wrap(op, domain.ErrNotFound)
	}
	j = j.Clone()
	j.ID = uuid.New().String()
	g.jobs = append(g.jobs, j)
	out := j.Clone()
	return &out, nil
}

func (g *Gateway) UpdateJob(_ context.Context, j domain.Job) (*domain.Job, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "updateJob"
	if err := g.begin(op); err != nil {
		return nil, err
	}
	i := g.jobIndex(j.ID)
	if i < 0 || g.customerIndex(j.CustomerID) < 0 {
		return nil, gateway.Wrap(op, domain.ErrNotFound)
	}
	g.jobs[i] = j.Clone()
	out := j.Clone()
	return &out, nil
}

func (g *Gateway) DeleteJob(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "deleteJob"
	if err := g.begin(op); err != nil {
		return err
	}
	i := g.jobIndex(id)
	if i < 0 {
		return gateway.Wrap(op, domain.ErrNotFound)
	}
	g.jobs = append(g.jobs[:i], g.jobs[i+1:]...)
	return nil
}

func (g *Gateway) ListCustomerGroups(_ context.Context) ([]domain.CustomerGroup, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("listCustomerGroups"); err != nil {
		return nil, err
	}
	out := make([]domain.CustomerGroup, 0, len(g.groups))
	for _, grp := range g.groups {
		out = append(out, grp.Clone())
	}
	return out, nil
}

func (g *Gateway) GetCustomerGroup(_ context.Context, id string) (*domain.CustomerGroup, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("getCustomerGroup"); err != nil {
		return nil, err
	}
	i := g.groupIndex(id)
	if i < 0 {
		return nil, gateway.Wrap("getCustomerGroup", domain.ErrNotFound)
	}
	out := g.groups[i].Clone()
	return &out, nil
}

func (g *Gateway) CreateCustomerGroup(_ context.Context, in gateway.NewGroup) (*domain.CustomerGroup, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("createCustomerGroup"); err != nil {
		return nil, err
	}
	grp := domain.CustomerGroup{
		ID:              uuid.New().String(),
		Name:            in.Name,
		WorkTimeMinutes: in.WorkTimeMinutes,
		Color:           in.Color,
		Notes:           in.Notes,
		CustomerIDs:     []string{},
	}
	g.groups = append(g.groups, grp)
	out := grp.Clone()
	return &out, nil
}

// UpdateCustomerGroup writes attributes only; members are kept.
func (g *Gateway) UpdateCustomerGroup(_ context.Context, grp domain.CustomerGroup) (*domain.CustomerGroup, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "updateCustomerGroup"
	if err := g.begin(op); err != nil {
		return nil, err
	}
	i := g.groupIndex(grp.ID)
	if i < 0 {
		return nil, gateway.Wrap(op, domain.ErrNotFound)
	}
	stored := &g.groups[i]
	stored.Name = grp.Name
	stored.WorkTimeMinutes = grp.WorkTimeMinutes
	stored.Color = grp.Color
	stored.Notes = grp.Notes
	out := stored.Clone()
	return &out, nil
}

// DeleteCustomerGroup removes the group and, like the foreign key in the
// Postgres schema, nulls any customer reference to it.
func (g *Gateway) DeleteCustomerGroup(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "deleteCustomerGroup"
	if err := g.begin(op); err != nil {
		return err
	}
	i := g.groupIndex(id)
	if i < 0 {
		return gateway.Wrap(op, domain.ErrNotFound)
	}
	g.groups = append(g.groups[:i], g.groups[i+1:]...)
	for k := range g.customers {
		if g.customers[k].InGroup(id) {
			g.customers[k].GroupID = nil
		}
	}
	return nil
}

func (g *Gateway) AddCustomerToGroup(_ context.Context, groupID, customerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "addCustomerToGroup"
	if err := g.begin(op); err != nil {
		return err
	}
	i := g.groupIndex(groupID)
	if i < 0 || g.customerIndex(customerID) < 0 {
		return gateway.Wrap(op, domain.ErrNotFound)
	}
	if !g.groups[i].HasMember(customerID) {
		g.groups[i].CustomerIDs = append(g.groups[i].CustomerIDs, customerID)
	}
	return nil
}

func (g *Gateway) RemoveCustomerFromGroup(_ context.Context, groupID, customerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	const op = "removeCustomerFromGroup"
	if err := g.begin(op); err != nil {
		return err
	}
	i := g.groupIndex(groupID)
	if i < 0 {
		return gateway.Wrap(op, domain.ErrNotFound)
	}
	members := g.groups[i].CustomerIDs[:0]
	for _, id := range g.groups[i].CustomerIDs {
		if id != customerID {
			members = append(members, id)
		}
	}
	g.groups[i].CustomerIDs = members
	return nil
}

func (g *Gateway) ListEquipment(_ context.Context) ([]domain.Equipment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.begin("listEquipment"); err != nil {
		return nil, err
	}
	out := make([]domain.Equipment, 0, len(g.equipment))
	for _, e := range g.equipment {
		out = append(out, e.Clone())
	}
	return out, nil
}

func (g *Gateway) customerIndex(id string) int {
	for i := range g.customers {
		if g.customers[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *Gateway) jobIndex(id string) int {
	for i := range g.jobs {
		if g.jobs[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *Gateway) groupIndex(id string) int {
	for i := range g.groups {
		if g.groups[i].ID == id {
			return i
		}
	}
	return -1
}
