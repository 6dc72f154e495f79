// Package notify is the user-facing notification channel: every completed
// board or ledger operation emits exactly one success or failure message.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yardops/internal/logging"
	"yardops/internal/metrics"
)

type Kind int

const (
	Success Kind = iota + 1
	Failure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Notification struct {
	ID      string    `json:"id"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives operation outcomes.
type Notifier interface {
	Success(format string, args ...any)
	Failure(format string, args ...any)
}

const DefaultHistory = 50

// Feed keeps the most recent notifications in memory, newest last.
type Feed struct {
	mu      sync.Mutex
	items   []Notification
	limit   int
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

var _ Notifier = (*Feed)(nil)

// NewFeed returns a feed holding up to limit entries. m may be nil.
func NewFeed(limit int, logger *zap.SugaredLogger, m *metrics.Metrics) *Feed {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Feed{
		limit:   limit,
		logger:  logging.OrDiscard(logger),
		metrics: m,
		now:     time.Now,
	}
}

func (f *Feed) Success(format string, args ...any) {
	f.emit(Success, fmt.Sprintf(format, args...))
}

func (f *Feed) Failure(format string, args ...any) {
	f.emit(Failure, fmt.Sprintf(format, args...))
}

func (f *Feed) emit(kind Kind, msg string) {
	n := Notification{
		ID:      uuid.New().String(),
		Kind:    kind,
		Message: msg,
		At:      f.now(),
	}

	f.mu.Lock()
	f.items = append(f.items, n)
	if over := len(f.items) - f.limit; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
	f.mu.Unlock()

	if kind == Failure {
		f.logger.Warnw("notification", "kind", kind.String(), "message", msg)
	} else {
		f.logger.Infow("notification", "kind", kind.String(), "message", msg)
	}
	if f.metrics != nil {
		f.metrics.Notifications.WithLabelValues(kind.String()).Inc()
	}
}

// Recent returns up to n notifications, newest first. n <= 0 returns all.
func (f *Feed) Recent(n int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n <= 0 || n > len(f.items) {
		n = len(f.items)
	}
	out := make([]Notification, 0, n)
	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}
	return out
}

// Last returns the newest notification.
func (f *Feed) Last() (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.items) == 0 {
		return Notification{}, false
	}
	return f.items[len(f.items)-1], true
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}
