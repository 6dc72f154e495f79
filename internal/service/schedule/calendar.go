package schedule

import (
	"strconv"
	"time"

	"yardops/internal/domain"
)

// GridDays is the number of cells in a month view: six full weeks.
const GridDays = 42

type Cell struct {
	Date    domain.Date  `json:"date"`
	InMonth bool         `json:"inMonth"`
	IsToday bool         `json:"isToday"`
	IsPast  bool         `json:"isPast"`
	Jobs    []domain.Job `json:"jobs"`
}

type Calendar struct {
	Month domain.Date `json:"month"`
	Label string      `json:"label"`
	Cells []Cell      `json:"cells"`
}

// BuildCalendar lays out the 42-day grid starting on the Sunday on or before
// the first of month. Jobs keep their load order within a cell.
func BuildCalendar(month, today domain.Date, jobs []domain.Job) Calendar {
	first := month.FirstOfMonth()
	start := first.AddDays(-int(first.Weekday()))

	byDate := make(map[domain.Date][]domain.Job)
	for _, j := range jobs {
		byDate[j.Date] = append(byDate[j.Date], j.Clone())
	}

	cells := make([]Cell, 0, GridDays)
	for i := 0; i < GridDays; i++ {
		d := start.AddDays(i)
		dayJobs := byDate[d]
		if dayJobs == nil {
			dayJobs = []domain.Job{}
		}
		cells = append(cells, Cell{
			Date:    d,
			InMonth: d.Year == first.Year && d.Month == first.Month,
			IsToday: d == today,
			IsPast:  d.Before(today),
			Jobs:    dayJobs,
		})
	}

	return Calendar{
		Month: first,
		Label: first.Month.String() + " " + strconv.Itoa(first.Year),
		Cells: cells,
	}
}

// ParseMonth accepts YYYY-MM and returns the first day of that month.
func ParseMonth(s string) (domain.Date, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return domain.Date{}, domain.NewValidationError("month", "must be YYYY-MM")
	}
	return domain.Date{Year: t.Year(), Month: t.Month(), Day: 1}, nil
}

func addMonths(d domain.Date, n int) domain.Date {
	return domain.DateOf(d.FirstOfMonth().Time().AddDate(0, n, 0))
}
