// Package insights derives KPIs, advisory insights, the four-week trend and
// per-customer profitability from the customer, job and equipment
// collections. Compute is pure; Engine keeps the latest report current.
package insights

import (
	"fmt"
	"math"
	"sort"

	"yardops/internal/domain"
)

const (
	HiringWeeklyHours     = 35.0
	UnderpricedFactor     = 0.8
	DriveShareThreshold   = 25.0
	AvgDriveMinutesLimit  = 15.0
	HighHourlyRate        = 60.0
	LowHourlyRate         = 40.0
	MaintenanceWindowDays = 7
	TrendWeeks            = 4
	daysPerWeek           = 7
)

// Kind is the closed set of insight categories, in emission order.
type Kind int

const (
	Hiring Kind = iota + 1
	Pricing
	Efficiency
	Routing
	Maintenance
	Profitability
)

func (k Kind) String() string {
	switch k {
	case Hiring:
		return "hiring"
	case Pricing:
		return "pricing"
	case Efficiency:
		return "efficiency"
	case Routing:
		return "routing"
	case Maintenance:
		return "maintenance"
	case Profitability:
		return "profitability"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Tone int

const (
	Warning Tone = iota + 1
	Positive
)

func (t Tone) String() string {
	switch t {
	case Warning:
		return "warning"
	case Positive:
		return "positive"
	default:
		return fmt.Sprintf("Tone(%d)", int(t))
	}
}

func (t Tone) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type Insight struct {
	Kind    Kind   `json:"kind"`
	Tone    Tone   `json:"tone"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type KPIs struct {
	CompletedJobs       int     `json:"completedJobs"`
	TotalRevenue        float64 `json:"totalRevenue"`
	TotalWorkHours      float64 `json:"totalWorkHours"`
	TotalDriveHours     float64 `json:"totalDriveHours"`
	AvgDriveTimePerJob  float64 `json:"avgDriveTimePerJob"`
	DriveTimePercentage float64 `json:"driveTimePercentage"`
	HourlyRate          float64 `json:"hourlyRate"`
	AvgEffectiveRate    float64 `json:"avgEffectiveRate"`
	WeeklyWorkHours     float64 `json:"weeklyWorkHours"`
}

type Week struct {
	Start   domain.Date `json:"start"`
	End     domain.Date `json:"end"`
	Revenue float64     `json:"revenue"`
	Hours   float64     `json:"hours"`
	Jobs    int         `json:"jobs"`
}

type Rating int

const (
	Good Rating = iota + 1
	Review
)

func (r Rating) String() string {
	switch r {
	case Good:
		return "Good"
	case Review:
		return "Review"
	default:
		return fmt.Sprintf("Rating(%d)", int(r))
	}
}

func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type CustomerProfit struct {
	CustomerID    string  `json:"customerId"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Jobs          int     `json:"jobs"`
	AvgTime       float64 `json:"avgTime"`
	EffectiveRate float64 `json:"effectiveRate"`
	Rating        Rating  `json:"rating"`
}

type UnderpricedJob struct {
	Job           domain.Job `json:"job"`
	CustomerName  string     `json:"customerName"`
	EffectiveRate float64    `json:"effectiveRate"`
}

// EquipmentAlert flags an item due for service. DaysUntil is set when a
// maintenance date is known and is negative when overdue.
type EquipmentAlert struct {
	Equipment domain.Equipment `json:"equipment"`
	DaysUntil *int             `json:"daysUntil,omitempty"`
	DueSoon   bool             `json:"dueSoon"`
	OverHours bool             `json:"overHours"`
}

// Report is the engine output. Empty is set when there are no completed
// jobs; every other field is then zero.
type Report struct {
	Empty           bool             `json:"empty"`
	GeneratedFor    domain.Date      `json:"generatedFor"`
	KPIs            KPIs             `json:"kpis"`
	Insights        []Insight        `json:"insights"`
	WeeklyTrend     []Week           `json:"weeklyTrend"`
	Profitability   []CustomerProfit `json:"profitability"`
	UnderpricedJobs []UnderpricedJob `json:"underpricedJobs"`
	EquipmentAlerts []EquipmentAlert `json:"equipmentAlerts"`
}

func emptyReport(today domain.Date) Report {
	return Report{
		Empty:           true,
		GeneratedFor:    today,
		Insights:        []Insight{},
		WeeklyTrend:     []Week{},
		Profitability:   []CustomerProfit{},
		UnderpricedJobs: []UnderpricedJob{},
		EquipmentAlerts: []EquipmentAlert{},
	}
}

// Compute derives the report. Only completed jobs count toward financial and
// time metrics.
func Compute(customers []domain.Customer, jobs []domain.Job, equipment []domain.Equipment, today domain.Date) Report {
	var completed []domain.Job
	for _, j := range jobs {
		if j.Status == domain.JobCompleted {
			completed = append(completed, j)
		}
	}
	if len(completed) == 0 {
		return emptyReport(today)
	}

	byID := make(map[string]domain.Customer, len(customers))
	for _, c := range customers {
		byID[c.ID] = c
	}
	price := func(j domain.Job) float64 {
		return byID[j.CustomerID].Price
	}

	r := Report{GeneratedFor: today}

	var revenue float64
	var workMinutes, driveMinutes int
	for _, j := range completed {
		revenue += price(j)
		workMinutes += minutes(j.TotalTime)
		driveMinutes += minutes(j.DriveTime)
	}
	k := KPIs{
		CompletedJobs:      len(completed),
		TotalRevenue:       revenue,
		TotalWorkHours:     float64(workMinutes) / 60,
		TotalDriveHours:    float64(driveMinutes) / 60,
		AvgDriveTimePerJob: float64(driveMinutes) / float64(len(completed)),
	}
	if denom := k.TotalWorkHours + k.TotalDriveHours; denom > 0 {
		k.DriveTimePercentage = k.TotalDriveHours / denom * 100
	}
	if k.TotalWorkHours > 0 {
		k.HourlyRate = k.TotalRevenue / k.TotalWorkHours
	}

	var rateSum float64
	var rated int
	rates := make(map[string]float64)
	for _, j := range completed {
		if rate, ok := effectiveRate(price(j), j.TotalTime); ok {
			rates[j.ID] = rate
			rateSum += rate
			rated++
		}
	}
	if rated > 0 {
		k.AvgEffectiveRate = rateSum / float64(rated)
	}

	weekStart := today.AddDays(-(daysPerWeek - 1))
	var weekMinutes int
	for _, j := range completed {
		if j.Date.Between(weekStart, today) {
			weekMinutes += minutes(j.TotalTime)
		}
	}
	k.WeeklyWorkHours = float64(weekMinutes) / 60
	r.KPIs = k

	r.UnderpricedJobs = []UnderpricedJob{}
	for _, j := range completed {
		rate, ok := rates[j.ID]
		if ok && rate < UnderpricedFactor*k.AvgEffectiveRate {
			r.UnderpricedJobs = append(r.UnderpricedJobs, UnderpricedJob{
				Job:           j,
				CustomerName:  byID[j.CustomerID].Name,
				EffectiveRate: rate,
			})
		}
	}

	r.Profitability = profitability(completed, byID, k.AvgEffectiveRate)
	r.WeeklyTrend = trend(completed, price, today)
	r.EquipmentAlerts = equipmentAlerts(equipment, today)
	r.Insights = insightsFor(r)
	return r
}

// effectiveRate is price per hour of recorded work. Jobs without a positive
// total time have none.
func effectiveRate(price float64, totalMinutes *int) (float64, bool) {
	if totalMinutes == nil || *totalMinutes <= 0 {
		return 0, false
	}
	return price / float64(*totalMinutes) * 60, true
}

func minutes(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func profitability(completed []domain.Job, byID map[string]domain.Customer, avgRate float64) []CustomerProfit {
	type acc struct {
		jobs, timed, minutes int
	}
	var order []string
	perCustomer := make(map[string]*acc)
	for _, j := range completed {
		a, ok := perCustomer[j.CustomerID]
		if !ok {
			a = &acc{}
			perCustomer[j.CustomerID] = a
			order = append(order, j.CustomerID)
		}
		a.jobs++
		if j.TotalTime != nil && *j.TotalTime > 0 {
			a.timed++
			a.minutes += *j.TotalTime
		}
	}

	out := []CustomerProfit{}
	for _, id := range order {
		a := perCustomer[id]
		if a.timed == 0 {
			continue
		}
		c := byID[id]
		avgTime := float64(a.minutes) / float64(a.timed)
		rate := c.Price / avgTime * 60
		rating := Review
		if rate >= avgRate {
			rating = Good
		}
		out = append(out, CustomerProfit{
			CustomerID:    id,
			Name:          c.Name,
			Price:         c.Price,
			Jobs:          a.jobs,
			AvgTime:       avgTime,
			EffectiveRate: rate,
			Rating:        rating,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveRate > out[j].EffectiveRate
	})
	return out
}

// trend buckets completed jobs into the four trailing seven-day windows
// ending today, most recent last.
func trend(completed []domain.Job, price func(domain.Job) float64, today domain.Date) []Week {
	weeks := make([]Week, TrendWeeks)
	for i := range weeks {
		end := today.AddDays(-daysPerWeek * (TrendWeeks - 1 - i))
		weeks[i] = Week{Start: end.AddDays(-(daysPerWeek - 1)), End: end}
	}
	mins := make([]int, TrendWeeks)
	for _, j := range completed {
		for i := range weeks {
			if j.Date.Between(weeks[i].Start, weeks[i].End) {
				weeks[i].Revenue += price(j)
				weeks[i].Jobs++
				mins[i] += minutes(j.TotalTime)
				break
			}
		}
	}
	for i := range weeks {
		weeks[i].Hours = round1(float64(mins[i]) / 60)
	}
	return weeks
}

func equipmentAlerts(equipment []domain.Equipment, today domain.Date) []EquipmentAlert {
	out := []EquipmentAlert{}
	for _, e := range equipment {
		alert := EquipmentAlert{Equipment: e.Clone()}
		if e.NextMaintenanceDate != nil {
			days := today.DaysUntil(*e.NextMaintenanceDate)
			alert.DaysUntil = &days
			alert.DueSoon = days <= MaintenanceWindowDays
		}
		alert.OverHours = e.HoursUsed >= e.AlertThreshold
		if alert.DueSoon || alert.OverHours {
			out = append(out, alert)
		}
	}
	return out
}

// insightsFor applies the rules in fixed order; each fires independently.
func insightsFor(r Report) []Insight {
	k := r.KPIs
	out := []Insight{}

	if k.WeeklyWorkHours > HiringWeeklyHours {
		out = append(out, Insight{
			Kind:    Hiring,
			Tone:    Warning,
			Title:   "Consider hiring help",
			Message: fmt.Sprintf("%.1f work hours in the last 7 days, above the %.0f hour mark.", k.WeeklyWorkHours, HiringWeeklyHours),
		})
	}
	if n := len(r.UnderpricedJobs); n > 0 {
		out = append(out, Insight{
			Kind:    Pricing,
			Tone:    Warning,
			Title:   "Review pricing",
			Message: fmt.Sprintf("%d job(s) earned less than %.0f%% of the average $%.2f/hr.", n, UnderpricedFactor*100, k.AvgEffectiveRate),
		})
	}
	if k.DriveTimePercentage > DriveShareThreshold {
		out = append(out, Insight{
			Kind:    Efficiency,
			Tone:    Warning,
			Title:   "High drive time",
			Message: fmt.Sprintf("%.1f%% of tracked time is spent driving.", k.DriveTimePercentage),
		})
	}
	if k.AvgDriveTimePerJob > AvgDriveMinutesLimit {
		out = append(out, Insight{
			Kind:    Routing,
			Tone:    Warning,
			Title:   "Optimize routes",
			Message: fmt.Sprintf("Average drive of %.1f minutes per job. Grouping nearby customers could cut it.", k.AvgDriveTimePerJob),
		})
	}
	if n := len(r.EquipmentAlerts); n > 0 {
		out = append(out, Insight{
			Kind:    Maintenance,
			Tone:    Warning,
			Title:   "Equipment maintenance due",
			Message: fmt.Sprintf("%d item(s) need maintenance soon.", n),
		})
	}
	switch {
	case k.TotalWorkHours == 0:
		// no recorded work time, no rate to judge
	case k.HourlyRate > HighHourlyRate:
		out = append(out, Insight{
			Kind:    Profitability,
			Tone:    Positive,
			Title:   "Strong hourly rate",
			Message: fmt.Sprintf("Earning $%.2f per work hour.", k.HourlyRate),
		})
	case k.HourlyRate < LowHourlyRate:
		out = append(out, Insight{
			Kind:    Profitability,
			Tone:    Warning,
			Title:   "Improve hourly rate",
			Message: fmt.Sprintf("Earning $%.2f per work hour, below $%.0f.", k.HourlyRate, LowHourlyRate),
		})
	}
	return out
}
