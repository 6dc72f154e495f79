// Package ledger is the job history surface: search, sort, duration
// breakdowns and validated create/update/delete.
package ledger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/logging"
	"yardops/internal/notify"
	"yardops/internal/store"
	"yardops/internal/validation"
)

type jobWriter interface {
	AddJob(ctx context.Context, j domain.Job) (*domain.Job, error)
	UpdateJob(ctx context.Context, j domain.Job) (*domain.Job, error)
	DeleteJob(ctx context.Context, id string) error
}

type Service struct {
	gw       jobWriter
	stores   *store.Stores
	notifier notify.Notifier
	logger   *zap.SugaredLogger

	mu sync.Mutex
}

func New(gw jobWriter, stores *store.Stores, notifier notify.Notifier, logger *zap.SugaredLogger) *Service {
	return &Service{
		gw:       gw,
		stores:   stores,
		notifier: notifier,
		logger:   logging.OrDiscard(logger),
	}
}

// StatusAll disables the status filter in a Query.
const StatusAll = "all"

// Query filters the ledger. An empty Status shows completed jobs only.
type Query struct {
	Text   string
	Status string
}

type Entry struct {
	Job             domain.Job `json:"job"`
	CustomerName    string     `json:"customerName"`
	CustomerAddress string     `json:"customerAddress"`
	Breakdown       Breakdown  `json:"breakdown"`
}

// List returns matching jobs, most recent date first.
func (s *Service) List(q Query) ([]Entry, error) {
	var (
		filter    domain.JobStatus
		anyStatus bool
	)
	switch strings.TrimSpace(q.Status) {
	case "":
		filter = domain.JobCompleted
	case StatusAll:
		anyStatus = true
	default:
		st, err := domain.ParseJobStatus(strings.TrimSpace(q.Status))
		if err != nil {
			return nil, domain.NewValidationError("status", err.Error())
		}
		filter = st
	}

	customers := make(map[string]domain.Customer)
	for _, c := range s.stores.Customers.Snapshot() {
		customers[c.ID] = c
	}
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	out := []Entry{}
	for _, j := range s.stores.Jobs.Snapshot() {
		if !anyStatus && j.Status != filter {
			continue
		}
		c := customers[j.CustomerID]
		if needle != "" && !matches(needle, c, j) {
			continue
		}
		out = append(out, Entry{
			Job:             j,
			CustomerName:    c.Name,
			CustomerAddress: c.Address,
			Breakdown:       BreakdownOf(j),
		})
	}

	sort.SliceStable(out, func(a, b int) bool {
		ja, jb := out[a].Job, out[b].Job
		if cmp := ja.Date.Compare(jb.Date); cmp != 0 {
			return cmp > 0
		}
		if ja.ScheduledTime != jb.ScheduledTime {
			return ja.ScheduledTime > jb.ScheduledTime
		}
		return ja.ID < jb.ID
	})
	return out, nil
}

func matches(needle string, c domain.Customer, j domain.Job) bool {
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Address), needle) ||
		strings.Contains(j.Date.String(), needle)
}

// Form is the text-input shape of a job. Durations that are empty or not
// whole non-negative numbers are treated as absent.
type Form struct {
	CustomerID    string `json:"customerId" validate:"notblank"`
	Date          string `json:"date" validate:"notblank,isodate"`
	Status        string `json:"status" validate:"omitempty,oneof=scheduled in-progress completed"`
	ScheduledTime string `json:"scheduledTime" validate:"omitempty,datetime=15:04"`
	TotalTime     string `json:"totalTime"`
	MowTime       string `json:"mowTime"`
	TrimTime      string `json:"trimTime"`
	EdgeTime      string `json:"edgeTime"`
	BlowTime      string `json:"blowTime"`
	DriveTime     string `json:"driveTime"`
	Notes         string `json:"notes"`
}

// ParseForm validates the form and builds a job. Status defaults to
// completed, the usual case for a manually logged visit.
func (s *Service) ParseForm(f Form) (domain.Job, error) {
	if err := validation.Check(f); err != nil {
		return domain.Job{}, err
	}
	customerID := strings.TrimSpace(f.CustomerID)
	if _, ok := s.stores.Customers.Get(customerID); !ok {
		return domain.Job{}, domain.NewValidationError("customerId", "unknown customer")
	}
	date, err := domain.ParseDate(strings.TrimSpace(f.Date))
	if err != nil {
		return domain.Job{}, domain.NewValidationError("date", err.Error())
	}
	status := domain.JobCompleted
	if st := strings.TrimSpace(f.Status); st != "" {
		if status, err = domain.ParseJobStatus(st); err != nil {
			return domain.Job{}, domain.NewValidationError("status", err.Error())
		}
	}

	return domain.Job{
		CustomerID:    customerID,
		Date:          date,
		Status:        status,
		ScheduledTime: strings.TrimSpace(f.ScheduledTime),
		TotalTime:     ParseMinutes(f.TotalTime),
		MowTime:       ParseMinutes(f.MowTime),
		TrimTime:      ParseMinutes(f.TrimTime),
		EdgeTime:      ParseMinutes(f.EdgeTime),
		BlowTime:      ParseMinutes(f.BlowTime),
		DriveTime:     ParseMinutes(f.DriveTime),
		Notes:         strings.TrimSpace(f.Notes),
	}, nil
}

// ParseMinutes reads a duration field rounded to whole minutes. Empty,
// non-numeric, negative and out-of-range input is absent.
func ParseMinutes(s string) *int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	v := int(math.Round(f))
	return &v
}

func (s *Service) Create(ctx context.Context, f Form) (*domain.Job, error) {
	job, err := s.ParseForm(f)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	label := s.label(job)
	created, err := s.gw.AddJob(ctx, job)
	if err != nil {
		return nil, s.fail(err, "Failed to add job for %s", label)
	}
	s.stores.Jobs.Put(*created)
	s.refreshJobs(ctx)
	s.notifier.Success("Added job for %s", label)
	return created, nil
}

// Update replaces every field of the job. An empty status keeps the current one.
func (s *Service) Update(ctx context.Context, id string, f Form) (*domain.Job, error) {
	current, ok := s.stores.Jobs.Get(id)
	if !ok {
		return nil, s.fail(fmt.Errorf("job %s: %w", id, domain.ErrNotFound), "Failed to update job %s: job not found", id)
	}
	job, err := s.ParseForm(f)
	if err != nil {
		return nil, err
	}
	job.ID = current.ID
	if strings.TrimSpace(f.Status) == "" {
		job.Status = current.Status
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	label := s.label(job)
	updated, err := s.gw.UpdateJob(ctx, job)
	if err != nil {
		return nil, s.fail(err, "Failed to update job for %s", label)
	}
	s.stores.Jobs.Put(*updated)
	s.refreshJobs(ctx)
	s.notifier.Success("Updated job for %s", label)
	return updated, nil
}

// Delete removes the job. Without confirmation it returns a prompt naming
// the customer and date and issues no gateway call.
func (s *Service) Delete(ctx context.Context, id string, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.stores.Jobs.Get(id)
	if !ok {
		return s.fail(fmt.Errorf("job %s: %w", id, domain.ErrNotFound), "Failed to delete job %s: job not found", id)
	}
	label := s.label(job)
	if !confirmed {
		return &domain.ConfirmationRequiredError{Prompt: fmt.Sprintf("Delete the job for %s?", label)}
	}

	if err := s.gw.DeleteJob(ctx, id); err != nil {
		return s.fail(err, "Failed to delete job for %s", label)
	}
	s.stores.Jobs.Remove(id)
	s.refreshJobs(ctx)
	s.notifier.Success("Deleted job for %s", label)
	return nil
}

// label names a job as "<customer> on <date>".
func (s *Service) label(j domain.Job) string {
	name := j.CustomerID
	if c, ok := s.stores.Customers.Get(j.CustomerID); ok {
		name = c.Name
	}
	return name + " on " + j.Date.String()
}

func (s *Service) fail(err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	s.logger.Errorw("ledger operation failed", "operation", msg, "error", err)
	s.notifier.Failure("%s", msg)
	return err
}

func (s *Service) refreshJobs(ctx context.Context) {
	if err := s.stores.Jobs.Refresh(ctx); err != nil {
		s.logger.Warnw("refresh after write failed", "collection", "jobs", "error", err)
	}
}
