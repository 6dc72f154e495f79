package grouping

import (
	"yardops/internal/domain"
)

type Summary struct {
	Group             domain.CustomerGroup `json:"group"`
	Members           []domain.Customer    `json:"members"`
	EffectiveWorkTime int                  `json:"effectiveWorkTime"`
	EstimatedTime     bool                 `json:"estimatedTime"`
	RoundRevenue      float64              `json:"roundRevenue"`
}

type Board struct {
	Groups     []Summary         `json:"groups"`
	Unassigned []domain.Customer `json:"unassigned"`
}

// Summaries lists every group with its members, in group load order.
// Members are resolved from Customer.GroupID.
func (s *Service) Summaries() Board {
	return Summarize(s.stores.Groups.Snapshot(), s.stores.Customers.Snapshot())
}

// Summarize is the pure form of Summaries.
func Summarize(groups []domain.CustomerGroup, customers []domain.Customer) Board {
	byGroup := make(map[string][]domain.Customer, len(groups))
	unassigned := []domain.Customer{}
	known := make(map[string]bool, len(groups))
	for _, g := range groups {
		known[g.ID] = true
	}
	for _, c := range customers {
		if c.GroupID == nil || !known[*c.GroupID] {
			unassigned = append(unassigned, c)
			continue
		}
		byGroup[*c.GroupID] = append(byGroup[*c.GroupID], c)
	}

	out := make([]Summary, 0, len(groups))
	for _, g := range groups {
		members := byGroup[g.ID]
		if members == nil {
			members = []domain.Customer{}
		}
		var revenue float64
		for _, m := range members {
			revenue += m.Price
		}
		out = append(out, Summary{
			Group:             g,
			Members:           members,
			EffectiveWorkTime: g.EffectiveWorkTime(),
			EstimatedTime:     g.WorkTimeMinutes <= 0,
			RoundRevenue:      revenue,
		})
	}
	return Board{Groups: out, Unassigned: unassigned}
}
