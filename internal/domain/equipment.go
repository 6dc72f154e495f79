package domain

// Equipment is a maintained machine (mower, trimmer, truck). Read-only to the core.
type Equipment struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	NextMaintenanceDate *Date   `json:"nextMaintenanceDate,omitempty"`
	HoursUsed           float64 `json:"hoursUsed"`
	AlertThreshold      float64 `json:"alertThreshold"`
}

func (e Equipment) Clone() Equipment {
	out := e
	if e.NextMaintenanceDate != nil {
		d := *e.NextMaintenanceDate
		out.NextMaintenanceDate = &d
	}
	return out
}
