// Package store holds the in-memory ward collections that back the dashboard
// and report endpoints. Each collection is owned by the composition root and
// is only written by its own fetch and mutation paths.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is a point-in-time copy of a collection.
type State[T any] struct {
	Items     []T       `json:"items"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Collection caches the result of a list call. Concurrent fetches are not
// cancelled; whichever completes last wins.
type Collection[T any] struct {
	name   string
	fetch  func(ctx context.Context) ([]T, error)
	key    func(T) string
	logger zerolog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	items     []T
	pending   int
	err       string
	fetchedAt time.Time
}

func NewCollection[T any](name string, fetch func(ctx context.Context) ([]T, error), key func(T) string, logger zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		name:   name,
		fetch:  fetch,
		key:    key,
		logger: logger.With().Str("store", name).Logger(),
		now:    time.Now,
		items:  []T{},
	}
}

func (c *Collection[T]) begin() {
	c.mu.Lock()
	c.pending++
	c.err = ""
	c.mu.Unlock()
}

// end clears one pending operation and records err, if any.
func (c *Collection[T]) end(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	if err != nil {
		c.err = err.Error()
	}
}

// Fetch reloads the collection. On failure the previous items are kept and
// the error message is stored.
func (c *Collection[T]) Fetch(ctx context.Context) error {
	c.begin()
	items, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("fetch failed")
		c.end(err)
		return err
	}
	if items == nil {
		items = []T{}
	}

	c.mu.Lock()
	c.pending--
	c.items = items
	c.fetchedAt = c.now()
	c.mu.Unlock()
	c.logger.Debug().Int("count", len(items)).Msg("fetched")
	return nil
}

// mutate runs fn as a tracked operation. The returned item, when non-nil, is
// merged into the collection by key.
func (c *Collection[T]) mutate(fn func() (T, bool, error)) error {
	c.begin()
	item, ok, err := fn()
	if err != nil {
		c.logger.Warn().Err(err).Msg("mutation failed")
		c.end(err)
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending--
	if ok {
		c.upsertLocked(item)
	}
	return nil
}

func (c *Collection[T]) upsertLocked(item T) {
	k := c.key(item)
	for i, existing := range c.items {
		if c.key(existing) == k {
			c.items[i] = item
			return
		}
	}
	c.items = append([]T{item}, c.items...)
}

// remove drops the item with key k after a successful delete.
func (c *Collection[T]) remove(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.items[:0:0]
	for _, it := range c.items {
		if c.key(it) != k {
			out = append(out, it)
		}
	}
	c.items = out
}

// Snapshot copies the current state.
func (c *Collection[T]) Snapshot() State[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]T, len(c.items))
	copy(items, c.items)
	return State[T]{
		Items:     items,
		Loading:   c.pending > 0,
		Error:     c.err,
		FetchedAt: c.fetchedAt,
	}
}

func (c *Collection[T]) Items() []T {
	return c.Snapshot().Items
}

// Status is the collection state without the items.
type Status struct {
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	Loading   bool      `json:"loading"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

func (c *Collection[T]) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Name:      c.name,
		Count:     len(c.items),
		Loading:   c.pending > 0,
		Error:     c.err,
		FetchedAt: c.fetchedAt,
	}
}
