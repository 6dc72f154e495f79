package domain

// Customer is a client location serviced on a recurring basis.
type Customer struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Price           float64 `json:"price"`
	SquareFootage   int     `json:"squareFootage"`
	NextServiceDate *Date   `json:"nextServiceDate,omitempty"`
	GroupID         *string `json:"groupId,omitempty"`
}

// Clone returns a copy that shares no pointers with c.
func (c Customer) Clone() Customer {
	out := c
	if c.NextServiceDate != nil {
		d := *c.NextServiceDate
		out.NextServiceDate = &d
	}
	if c.GroupID != nil {
		g := *c.GroupID
		out.GroupID = &g
	}
	return out
}

// InGroup reports whether the customer references groupID.
func (c Customer) InGroup(groupID string) bool {
	return c.GroupID != nil && *c.GroupID == groupID
}

// IsAnchor reports whether a job dated d is the customer's anchor job.
func (c Customer) IsAnchor(d Date) bool {
	return c.NextServiceDate != nil && *c.NextServiceDate == d
}
