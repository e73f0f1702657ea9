// cache/refreshing.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/metrics"
)

// ErrNotFound is returned by Get after a confirmed miss: the key was absent
// locally and the loader confirmed it does not exist upstream.
var ErrNotFound = errors.New("cache: entry not found")

// Loader is the collaborator a Refreshing cache is filled from.
type Loader[V any] interface {
	// LoadAll fetches the complete data set, keyed by id.
	LoadAll(ctx context.Context) (map[string]V, error)
	// LoadOne fetches a single entry; found is false on a confirmed miss.
	LoadOne(ctx context.Context, id string) (value V, found bool, err error)
}

type entry[V any] struct {
	value      V
	insertedAt time.Time
	negative   bool
}

// generation is an immutable snapshot of the cache contents. Readers load the
// current generation pointer and never see a partially-populated map.
type generation[V any] struct {
	entries map[string]entry[V]
}

// Options configures a Refreshing cache.
type Options struct {
	// Name labels log lines and metrics.
	Name string
	// TTL is the write-based expiry applied per entry, a safety net against
	// stale data if refresh ever stalls. Zero disables it.
	TTL time.Duration
	// Capacity bounds on-miss inserts; the oldest entry is evicted at the
	// bound. Zero means the default of 10000.
	Capacity int
	// Clock defaults to the wall clock; tests inject a mock.
	Clock clock.Clock
}

// Refreshing is a read cache over a Loader. Reads are lock-free against an
// atomically swapped generation; RefreshAll replaces the whole generation so
// concurrent readers observe either the old complete set or the new one.
// Misses are deduplicated through singleflight and a confirmed miss is
// negatively cached until the next generation swap.
type Refreshing[V any] struct {
	name     string
	loader   Loader[V]
	clock    clock.Clock
	ttl      time.Duration
	capacity int

	gen   atomic.Pointer[generation[V]]
	mu    sync.Mutex // serializes generation swaps and on-miss inserts
	group singleflight.Group
}

func NewRefreshing[V any](loader Loader[V], opts Options) *Refreshing[V] {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 10000
	}
	c := &Refreshing[V]{
		name:     opts.Name,
		loader:   loader,
		clock:    opts.Clock,
		ttl:      opts.TTL,
		capacity: opts.Capacity,
	}
	c.gen.Store(&generation[V]{entries: map[string]entry[V]{}})
	return c
}

// Get returns the cached value for id, fetching it from the loader on a
// miss. A hit performs no I/O. A loader failure on the miss path surfaces as
// ErrNotFound rather than a retryable error.
func (c *Refreshing[V]) Get(ctx context.Context, id string) (V, error) {
	var zero V

	if e, ok := c.lookup(id); ok {
		metrics.CacheHits.WithLabelValues(c.name).Inc()
		if e.negative {
			return zero, ErrNotFound
		}
		return e.value, nil
	}
	metrics.CacheMisses.WithLabelValues(c.name).Inc()

	v, err, _ := c.group.Do(id, func() (interface{}, error) {
		// A concurrent flight may have populated the entry already.
		if e, ok := c.lookup(id); ok {
			if e.negative {
				return nil, ErrNotFound
			}
			return e.value, nil
		}

		value, found, err := c.loader.LoadOne(ctx, id)
		if err != nil {
			logger.Warn("Single-key cache load failed",
				zap.String("cache", c.name),
				zap.String("key", id),
				zap.Error(err))
			return nil, ErrNotFound
		}
		if !found {
			c.insert(id, entry[V]{negative: true, insertedAt: c.clock.Now()})
			return nil, ErrNotFound
		}
		c.insert(id, entry[V]{value: value, insertedAt: c.clock.Now()})
		return value, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(V), nil
}

// RefreshAll fetches the complete data set and atomically replaces the cache
// contents. On failure the previous contents stay untouched; the caller (the
// scheduled refresher) retries on its next tick.
func (c *Refreshing[V]) RefreshAll(ctx context.Context) error {
	data, err := c.loader.LoadAll(ctx)
	if err != nil {
		metrics.CacheRefreshes.WithLabelValues(c.name, "failure").Inc()
		return fmt.Errorf("refresh %s: %w", c.name, err)
	}

	now := c.clock.Now()
	entries := make(map[string]entry[V], len(data))
	for k, v := range data {
		entries[k] = entry[V]{value: v, insertedAt: now}
	}

	c.mu.Lock()
	c.gen.Store(&generation[V]{entries: entries})
	c.mu.Unlock()

	metrics.CacheRefreshes.WithLabelValues(c.name, "success").Inc()
	logger.Info("Cache refreshed",
		zap.String("cache", c.name),
		zap.Int("entries", len(entries)))
	return nil
}

// Len reports the number of entries in the current generation, negative
// entries included.
func (c *Refreshing[V]) Len() int {
	return len(c.gen.Load().entries)
}

func (c *Refreshing[V]) lookup(id string) (entry[V], bool) {
	g := c.gen.Load()
	e, ok := g.entries[id]
	if !ok {
		return e, false
	}
	if c.ttl > 0 && c.clock.Now().Sub(e.insertedAt) > c.ttl {
		return e, false
	}
	return e, true
}

func (c *Refreshing[V]) insert(id string, e entry[V]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.gen.Load()
	next := make(map[string]entry[V], len(old.entries)+1)
	for k, v := range old.entries {
		next[k] = v
	}
	if _, exists := next[id]; !exists && len(next) >= c.capacity {
		evictOldest(next)
	}
	next[id] = e
	c.gen.Store(&generation[V]{entries: next})
}

func evictOldest[V any](entries map[string]entry[V]) {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for k, e := range entries {
		if first || e.insertedAt.Before(oldestAt) {
			oldestKey, oldestAt, first = k, e.insertedAt, false
		}
	}
	delete(entries, oldestKey)
}
