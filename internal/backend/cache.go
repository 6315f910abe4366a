package backend

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/me/schedlab/internal/metrics"
	"github.com/me/schedlab/pkg/model"
)

const listKey = "\x00list"

type cacheEntry struct {
	value   any
	expires time.Time
}

// CachedProvider memoizes a SchemaProvider for a fixed TTL. Concurrent misses
// for the same key share one upstream call.
type CachedProvider struct {
	upstream SchemaProvider
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	flight  singleflight.Group
}

// NewCachedProvider wraps upstream. A ttl of zero disables caching but keeps
// call deduplication.
func NewCachedProvider(upstream SchemaProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		upstream: upstream,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
	}
}

// ListAlgorithms returns the cached list or fetches it.
func (c *CachedProvider) ListAlgorithms(ctx context.Context) ([]model.AlgorithmSummary, error) {
	v, err := c.load(listKey, func() (any, error) {
		return c.upstream.ListAlgorithms(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.AlgorithmSummary), nil
}

// GetAlgorithm returns a copy of the cached definition or fetches it.
func (c *CachedProvider) GetAlgorithm(ctx context.Context, name string) (*model.AlgorithmDefinition, error) {
	v, err := c.load(name, func() (any, error) {
		return c.upstream.GetAlgorithm(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*model.AlgorithmDefinition)
	return &cp, nil
}

// Invalidate drops the cached definition for name and the algorithm list.
func (c *CachedProvider) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
	delete(c.entries, listKey)
}

func (c *CachedProvider) load(key string, fetch func() (any, error)) (any, error) {
	start := time.Now()
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		metrics.SchemaFetchDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
		return e.value, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(key, func() (any, error) {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = cacheEntry{value: v, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return v, nil
	})
	return v, err
}
