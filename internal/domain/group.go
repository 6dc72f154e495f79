package domain

// DefaultGroupColor is used when a group is saved without a color.
const DefaultGroupColor = "#4caf50"

// MinutesPerMemberEstimate is the fallback per-customer work estimate used
// when a group has no manual work time.
const MinutesPerMemberEstimate = 60

// CustomerGroup is a geographic cluster of customers serviced together.
// CustomerIDs mirrors Customer.GroupID.
type CustomerGroup struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	WorkTimeMinutes int      `json:"workTimeMinutes"`
	Color           string   `json:"color"`
	Notes           string   `json:"notes,omitempty"`
	CustomerIDs     []string `json:"customerIds"`
}

func (g CustomerGroup) Clone() CustomerGroup {
	out := g
	out.CustomerIDs = append([]string(nil), g.CustomerIDs...)
	if out.CustomerIDs == nil {
		out.CustomerIDs = []string{}
	}
	return out
}

func (g CustomerGroup) HasMember(customerID string) bool {
	for _, id := range g.CustomerIDs {
		if id == customerID {
			return true
		}
	}
	return false
}

// EffectiveWorkTime is the manual estimate when set, otherwise
// member count times MinutesPerMemberEstimate.
func (g CustomerGroup) EffectiveWorkTime() int {
	if g.WorkTimeMinutes > 0 {
		return g.WorkTimeMinutes
	}
	return len(g.CustomerIDs) * MinutesPerMemberEstimate
}
