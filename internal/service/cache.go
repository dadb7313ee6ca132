package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/rainwatch/backend/internal/observability"
)

// ttlCache holds a single computed value for a fixed duration. Concurrent
// misses share one load. Failed loads are not cached.
type ttlCache[T any] struct {
	name    string
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	group   singleflight.Group

	mu      sync.Mutex
	value   T
	expires time.Time
	valid   bool
}

func newTTLCache[T any](name string, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *ttlCache[T] {
	return &ttlCache[T]{name: name, ttl: ttl, clock: clock, metrics: metrics}
}

func (c *ttlCache[T]) get(ctx context.Context, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(); ok {
		c.metrics.CacheLookups.WithLabelValues(c.name, "hit").Inc()
		return v, nil
	}
	c.metrics.CacheLookups.WithLabelValues(c.name, "miss").Inc()

	v, err, _ := c.group.Do(c.name, func() (any, error) {
		// a load may have finished between lookup and Do
		if val, ok := c.lookup(); ok {
			return val, nil
		}
		// callers share this load; one of them going away must not cancel it
		val, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return val, err
		}
		c.mu.Lock()
		c.value = val
		c.expires = c.clock.Now().Add(c.ttl)
		c.valid = true
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *ttlCache[T]) lookup() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.clock.Now().Before(c.expires) {
		return c.value, true
	}
	var zero T
	return zero, false
}
