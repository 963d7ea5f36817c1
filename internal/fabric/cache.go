package fabric

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	cacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdwan_cache_hits_total",
			Help: "Cache reads served within the freshness window.",
		},
		[]string{"resource"},
	)
	cacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdwan_cache_misses_total",
			Help: "Cache reads that required an upstream fetch.",
		},
		[]string{"resource"},
	)
	refreshFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdwan_refresh_failures_total",
			Help: "Upstream fetches that failed; stale data was retained.",
		},
		[]string{"resource"},
	)
)

func init() {
	prometheus.MustRegister(cacheHitsTotal, cacheMissesTotal, refreshFailuresTotal)
}

// Cache is a keyed TTL cache shielding the controller API from redundant
// calls. Keys are logical resource names; each key carries its own
// freshness window at call time. There is no eviction beyond
// overwrite-on-refresh -- the key space is three resource kinds.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	logger  *zap.Logger

	now func() time.Time
}

// cacheEntry holds the last good value for one key. The per-entry mutex
// serializes refreshes: a second caller arriving during a fetch blocks,
// re-checks freshness, and reuses the first caller's result, so one
// observation window triggers at most one upstream call.
type cacheEntry struct {
	mu        sync.Mutex
	value     any
	fetchedAt time.Time
	has       bool
}

// NewCache creates an empty cache.
func NewCache(logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		logger:  logger,
		now:     time.Now,
	}
}

func (c *Cache) entry(key string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	return e
}

// GetOrFetch returns the cached value for key when it is younger than
// ttl, otherwise invokes fetch and stores the result. force bypasses the
// freshness check unconditionally.
//
// A failed fetch never corrupts the entry: the prior value and timestamp
// are retained and the stale value is returned alongside the error. When
// no prior value exists the zero value is returned. Callers treat the
// error as "no fresh data this cycle", never as fatal.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, force bool, fetch func(context.Context) (T, error)) (T, error) {
	e := c.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.has && !force && c.now().Sub(e.fetchedAt) < ttl {
		cacheHitsTotal.WithLabelValues(key).Inc()
		return e.value.(T), nil
	}
	cacheMissesTotal.WithLabelValues(key).Inc()

	v, err := fetch(ctx)
	if err != nil {
		refreshFailuresTotal.WithLabelValues(key).Inc()
		if e.has {
			c.logger.Warn("refresh failed, serving stale value",
				zap.String("resource", key),
				zap.Duration("age", c.now().Sub(e.fetchedAt)),
				zap.Error(err),
			)
			return e.value.(T), err
		}
		c.logger.Warn("refresh failed, no cached value",
			zap.String("resource", key),
			zap.Error(err),
		)
		var zero T
		return zero, err
	}

	e.value = v
	e.fetchedAt = c.now()
	e.has = true
	return v, nil
}
