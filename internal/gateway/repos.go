package gateway

import (
	"context"

	"yardops/internal/domain"
	customerrepo "yardops/internal/repository/customer"
	equipmentrepo "yardops/internal/repository/equipment"
	grouprepo "yardops/internal/repository/group"
	jobrepo "yardops/internal/repository/job"
)

// Repos groups the repositories a Gateway delegates to.
type Repos struct {
	Customers customerrepo.Repository
	Jobs      jobrepo.Repository
	Groups    grouprepo.Repository
	Equipment equipmentrepo.Repository
}

type repoGateway struct {
	repos Repos
}

// New returns a Gateway backed by the given repositories.
func New(repos Repos) Gateway {
	return &repoGateway{repos: repos}
}

func (g *repoGateway) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	out, err := g.repos.Customers.List(ctx)
	return out, Wrap("listCustomers", err)
}

func (g *repoGateway) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	out, err := g.repos.Customers.GetByID(ctx, id)
	return out, Wrap("getCustomer", err)
}

func (g *repoGateway) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	out, err := g.repos.Customers.Update(ctx, c)
	return out, Wrap("updateCustomer", err)
}

func (g *repoGateway) ListJobs(ctx context.Context) ([]domain.Job, error) {
	out, err := g.repos.Jobs.List(ctx)
	return out, Wrap("listJobs", err)
}

func (g *repoGateway) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	out, err := g.repos.Jobs.GetByID(ctx, id)
	return out, Wrap("getJob", err)
}

func (g *repoGateway) AddJob(ctx context.Context, j domain.Job) (*domain.Job, error) {
	j.ID = ""
	out, err := g.repos.Jobs.Create(ctx, j)
	return out, Wrap("addJob", err)
}

func (g *repoGateway) UpdateJob(ctx context.Context, j domain.Job) (*domain.Job, error) {
	out, err := g.repos.Jobs.Update(ctx, j)
	return out, Wrap("updateJob", err)
}

func (g *repoGateway) DeleteJob(ctx context.Context, id string) error {
	return Wrap("deleteJob", g.repos.Jobs.Delete(ctx, id))
}

func (g *repoGateway) ListCustomerGroups(ctx context.Context) ([]domain.CustomerGroup, error) {
	out, err := g.repos.Groups.List(ctx)
	return out, Wrap("listCustomerGroups", err)
}

func (g *repoGateway) GetCustomerGroup(ctx context.Context, id string) (*domain.CustomerGroup, error) {
	out, err := g.repos.Groups.GetByID(ctx, id)
	return out, Wrap("getCustomerGroup", err)
}

func (g *repoGateway) CreateCustomerGroup(ctx context.Context, in NewGroup) (*domain.CustomerGroup, error) {
	out, err := g.repos.Groups.Create(ctx, domain.CustomerGroup{
		Name:            in.Name,
		WorkTimeMinutes: in.WorkTimeMinutes,
		Color:           in.Color,
		Notes:           in.Notes,
		CustomerIDs:     []string{},
	})
	return out, Wrap("createCustomerGroup", err)
}

func (g *repoGateway) UpdateCustomerGroup(ctx context.Context, group domain.CustomerGroup) (*domain.CustomerGroup, error) {
	out, err := g.repos.Groups.Update(ctx, group)
	return out, Wrap("updateCustomerGroup", err)
}

func (g *repoGateway) DeleteCustomerGroup(ctx context.Context, id string) error {
	return Wrap("deleteCustomerGroup", g.repos.Groups.Delete(ctx, id))
}

func (g *repoGateway) AddCustomerToGroup(ctx context.Context, groupID, customerID string) error {
	return Wrap("addCustomerToGroup", g.repos.Groups.AddMember(ctx, groupID, customerID))
}

func (g *repoGateway) RemoveCustomerFromGroup(ctx context.Context, groupID, customerID string) error {
	return Wrap("removeCustomerFromGroup", g.repos.Groups.RemoveMember(ctx, groupID, customerID))
}

func (g *repoGateway) ListEquipment(ctx context.Context) ([]domain.Equipment, error) {
	out, err := g.repos.Equipment.List(ctx)
	return out, Wrap("listEquipment", err)
}
