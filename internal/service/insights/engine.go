package insights

import (
	"sync"

	"go.uber.org/zap"

	"yardops/internal/domain"
	"yardops/internal/logging"
	"yardops/internal/metrics"
	"yardops/internal/store"
)

// Engine recomputes the report whenever a store changes.
type Engine struct {
	stores  *store.Stores
	metrics *metrics.Metrics
	logger  *zap.SugaredLogger
	today   func() domain.Date

	// computeMu orders recomputes so the cached report comes from the
	// latest snapshots when stores refresh concurrently.
	computeMu sync.Mutex

	mu     sync.RWMutex
	latest Report
}

// NewEngine subscribes to stores. m may be nil.
func NewEngine(stores *store.Stores, m *metrics.Metrics, logger *zap.SugaredLogger) *Engine {
	e := &Engine{
		stores:  stores,
		metrics: m,
		logger:  logging.OrDiscard(logger),
		today:   domain.Today,
		latest:  emptyReport(domain.Today()),
	}
	stores.OnChange(func() { e.Recompute() })
	return e
}

// WithClock overrides the source of "today".
func (e *Engine) WithClock(today func() domain.Date) *Engine {
	e.today = today
	return e
}

// Recompute runs Compute over the current snapshots and caches the result.
func (e *Engine) Recompute() Report {
	e.computeMu.Lock()
	defer e.computeMu.Unlock()

	r := Compute(
		e.stores.Customers.Snapshot(),
		e.stores.Jobs.Snapshot(),
		e.stores.Equipment.Snapshot(),
		e.today(),
	)

	e.mu.Lock()
	e.latest = r
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.HourlyRate.Set(r.KPIs.HourlyRate)
		e.metrics.WeeklyWorkHours.Set(r.KPIs.WeeklyWorkHours)
		e.metrics.InsightsActive.Set(float64(len(r.Insights)))
	}
	e.logger.Debugw("insights recomputed",
		"empty", r.Empty,
		"completed_jobs", r.KPIs.CompletedJobs,
		"insights", len(r.Insights),
	)
	return r
}

// Latest returns the most recently computed report.
func (e *Engine) Latest() Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}
