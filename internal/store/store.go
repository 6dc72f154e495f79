// Package store owns the in-memory entity collections. Consumers read deep
// copies; writes only land through Put/Remove after the gateway confirmed
// them, and Refresh reconciles against the gateway.
package store

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yardops/internal/domain"
	"yardops/internal/gateway"
	"yardops/internal/logging"
)

// Collection is an ordered, id-keyed list of T in gateway load order.
type Collection[T any] struct {
	name   string
	fetch  func(ctx context.Context) ([]T, error)
	clone  func(T) T
	idOf   func(T) string
	logger *zap.SugaredLogger

	mu        sync.RWMutex
	items     []T
	loaded    bool
	listeners []func()
}

func NewCollection[T any](
	name string,
	fetch func(ctx context.Context) ([]T, error),
	clone func(T) T,
	idOf func(T) string,
	logger *zap.SugaredLogger,
) *Collection[T] {
	return &Collection[T]{
		name:   name,
		fetch:  fetch,
		clone:  clone,
		idOf:   idOf,
		logger: logging.OrDiscard(logger),
	}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// Snapshot returns a deep copy of the collection.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, c.clone(it))
	}
	return out
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexOf(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Loaded reports whether a refresh has succeeded at least once.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Put replaces the entity with the same id, or appends it.
func (c *Collection[T]) Put(item T) {
	c.mu.Lock()
	item = c.clone(item)
	if i := c.indexOf(c.idOf(item)); i >= 0 {
		c.items[i] = item
	} else {
		c.items = append(c.items, item)
	}
	c.mu.Unlock()
	c.notify()
}

// Remove drops the entity with id, if present.
func (c *Collection[T]) Remove(id string) {
	c.mu.Lock()
	i := c.indexOf(id)
	if i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	c.mu.Unlock()
	if i >= 0 {
		c.notify()
	}
}

// Refresh replaces the collection with the gateway's authoritative list.
// On failure the current contents are kept.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	items, err := c.fetch(ctx)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", c.name, err)
	}
	cloned := make([]T, 0, len(items))
	for _, it := range items {
		cloned = append(cloned, c.clone(it))
	}

	c.mu.Lock()
	c.items = cloned
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debugw("collection refreshed", "collection", c.name, "count", len(cloned))
	c.notify()
	return nil
}

// OnChange registers fn to run after every Put, Remove or Refresh.
func (c *Collection[T]) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Collection[T]) notify() {
	c.mu.RLock()
	listeners := append([]func(){}, c.listeners...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func (c *Collection[T]) indexOf(id string) int {
	for i, it := range c.items {
		if c.idOf(it) == id {
			return i
		}
	}
	return -1
}

// Stores groups the four collections the boards and the insights engine share.
type Stores struct {
	Customers *Collection[domain.Customer]
	Jobs      *Collection[domain.Job]
	Groups    *Collection[domain.CustomerGroup]
	Equipment *Collection[domain.Equipment]
}

// New wires collections that fetch through gw.
func New(gw gateway.Gateway, logger *zap.SugaredLogger) *Stores {
	return &Stores{
		Customers: NewCollection("customers", gw.ListCustomers,
			domain.Customer.Clone, func(c domain.Customer) string { return c.ID }, logger),
		Jobs: NewCollection("jobs", gw.ListJobs,
			domain.Job.Clone, func(j domain.Job) string { return j.ID }, logger),
		Groups: NewCollection("groups", gw.ListCustomerGroups,
			domain.CustomerGroup.Clone, func(g domain.CustomerGroup) string { return g.ID }, logger),
		Equipment: NewCollection("equipment", gw.ListEquipment,
			domain.Equipment.Clone, func(e domain.Equipment) string { return e.ID }, logger),
	}
}

// RefreshAll refreshes every collection concurrently.
func (s *Stores) RefreshAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Customers.Refresh(ctx) })
	g.Go(func() error { return s.Jobs.Refresh(ctx) })
	g.Go(func() error { return s.Groups.Refresh(ctx) })
	g.Go(func() error { return s.Equipment.Refresh(ctx) })
	return g.Wait()
}

// OnChange registers fn on every collection.
func (s *Stores) OnChange(fn func()) {
	s.Customers.OnChange(fn)
	s.Jobs.OnChange(fn)
	s.Groups.OnChange(fn)
	s.Equipment.OnChange(fn)
}

// Ready reports whether every collection has loaded once.
func (s *Stores) Ready() bool {
	return s.Customers.Loaded() && s.Jobs.Loaded() && s.Groups.Loaded() && s.Equipment.Loaded()
}
