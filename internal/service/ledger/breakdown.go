package ledger

import (
	"yardops/internal/domain"
)

// Breakdown splits a job's recorded minutes by task. TotalTime is work time;
// drive time is tracked on its own. Unaccounted is Total minus TaskSum, set
// only when both are known; it goes negative when the tasks exceed the total.
type Breakdown struct {
	Mow          *int `json:"mow,omitempty"`
	Trim         *int `json:"trim,omitempty"`
	Edge         *int `json:"edge,omitempty"`
	Blow         *int `json:"blow,omitempty"`
	Drive        *int `json:"drive,omitempty"`
	Total        *int `json:"total,omitempty"`
	TaskSum      int  `json:"taskSum"`
	Unaccounted  *int `json:"unaccounted,omitempty"`
	WorkMinutes  int  `json:"workMinutes"`
	DriveMinutes int  `json:"driveMinutes"`
}

func BreakdownOf(j domain.Job) Breakdown {
	b := Breakdown{
		Mow:   j.MowTime,
		Trim:  j.TrimTime,
		Edge:  j.EdgeTime,
		Blow:  j.BlowTime,
		Drive: j.DriveTime,
		Total: j.TotalTime,
	}

	tasks := 0
	for _, v := range []*int{j.MowTime, j.TrimTime, j.EdgeTime, j.BlowTime} {
		if v != nil {
			b.TaskSum += *v
			tasks++
		}
	}
	if j.TotalTime != nil {
		b.WorkMinutes = *j.TotalTime
		if tasks > 0 {
			u := *j.TotalTime - b.TaskSum
			b.Unaccounted = &u
		}
	} else {
		b.WorkMinutes = b.TaskSum
	}
	if j.DriveTime != nil {
		b.DriveMinutes = *j.DriveTime
	}
	return b
}
