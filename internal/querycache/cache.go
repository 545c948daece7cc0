// Package querycache memoizes translated bool queries by content hash.
// The cache is bounded by entry count and entry age; every read hands out
// a structural copy so callers can never corrupt a cached result.
package querycache

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/esquery/internal/domain/query"
)

// Defaults for the process-wide translation cache.
const (
	DefaultMaxEntries = 1000
	DefaultMaxAge     = 5 * time.Minute
)

// Metrics are optional Prometheus collectors updated by the cache.
type Metrics struct {
	Lookups   *prometheus.CounterVec // label "result": "hit" / "miss"
	Evictions *prometheus.CounterVec // label "reason": "expired" / "overflow"
	Entries   prometheus.Gauge
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

type entry struct {
	result   *query.Bool
	storedAt time.Time
}

// Cache maps a content hash to a translation result. A stored nil result
// is the no-query sentinel and is a valid hit.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	maxAge     time.Duration
	now        func() time.Time
	metrics    Metrics

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a cache bounded to maxEntries entries of at most maxAge.
// Non-positive bounds fall back to the defaults.
func New(maxEntries int, maxAge time.Duration, opts ...Option) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	c := &Cache{
		entries:    make(map[string]entry),
		maxEntries: maxEntries,
		maxAge:     maxAge,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns a copy of the result stored under key. Entries older than
// the max age are reported absent but left for Evict to remove.
func (c *Cache) Get(key string) (*query.Bool, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()

	if !ok || c.now().Sub(e.storedAt) > c.maxAge {
		c.misses.Add(1)
		c.observe("miss")
		return nil, false
	}

	c.hits.Add(1)
	c.observe("hit")
	return e.result.Clone(), true
}

// Set stores a copy of result under key with a fresh timestamp,
// overwriting any previous entry.
func (c *Cache) Set(key string, result *query.Bool) {
	c.mu.Lock()
	c.entries[key] = entry{result: result.Clone(), storedAt: c.now()}
	n := len(c.entries)
	c.mu.Unlock()

	if c.metrics.Entries != nil {
		c.metrics.Entries.Set(float64(n))
	}
}

// Evict removes expired entries, then trims the oldest entries until the
// cache is within its size bound. It returns the number of entries removed
// for each reason.
func (c *Cache) Evict() (expired, overflow int) {
	c.mu.Lock()
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > c.maxAge {
			delete(c.entries, k)
			expired++
		}
	}

	if excess := len(c.entries) - c.maxEntries; excess > 0 {
		keys := make([]string, 0, len(c.entries))
		for k := range c.entries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return c.entries[keys[i]].storedAt.Before(c.entries[keys[j]].storedAt)
		})
		for _, k := range keys[:excess] {
			delete(c.entries, k)
		}
		overflow = excess
	}
	n := len(c.entries)
	c.mu.Unlock()

	c.evictions.Add(uint64(expired + overflow))
	if c.metrics.Evictions != nil {
		c.metrics.Evictions.WithLabelValues("expired").Add(float64(expired))
		c.metrics.Evictions.WithLabelValues("overflow").Add(float64(overflow))
	}
	if c.metrics.Entries != nil {
		c.metrics.Entries.Set(float64(n))
	}
	return expired, overflow
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()

	if c.metrics.Entries != nil {
		c.metrics.Entries.Set(0)
	}
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.Len(),
	}
}

func (c *Cache) observe(result string) {
	if c.metrics.Lookups != nil {
		c.metrics.Lookups.WithLabelValues(result).Inc()
	}
}
