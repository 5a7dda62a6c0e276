package windborne

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/quietpetrel/stratowatch/internal/observability"
)

// CachedFetcher wraps a Fetcher with a per-hour TTL memo, so back-to-back
// aggregation runs inside the TTL reuse hourly bodies instead of re-hitting
// the upstream. The keyspace is bounded at 24 hour labels, so there is no
// eviction beyond expiry. Errors are never cached; a failed hour is retried
// on the next run.
type CachedFetcher struct {
	inner   Fetcher
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	body    []byte
	expires time.Time
}

// NewCachedFetcher creates a cache decorator around a snapshot fetcher.
func NewCachedFetcher(inner Fetcher, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		entries: make(map[string]cacheEntry),
	}
}

func (c *CachedFetcher) FetchHour(ctx context.Context, hour string) ([]byte, error) {
	c.mu.Lock()
	if e, ok := c.entries[hour]; ok && c.clock.Now().Before(e.expires) {
		c.mu.Unlock()
		c.metrics.SnapshotCache.WithLabelValues("hit").Inc()
		return e.body, nil
	}
	c.mu.Unlock()
	c.metrics.SnapshotCache.WithLabelValues("miss").Inc()

	body, err := c.inner.FetchHour(ctx, hour)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[hour] = cacheEntry{body: body, expires: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
	return body, nil
}
