package application

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/attentionhub/internal/domain/model"
)

// InsightsComputer produces a fresh AttentionInsights value.
type InsightsComputer interface {
	Compute(ctx context.Context) (model.AttentionInsights, error)
}

// InsightsCache keeps the last computed insights until they are older than
// maxAge, measured from their GeneratedAt. Concurrent misses share one
// computation. A zero maxAge disables caching.
type InsightsCache struct {
	source InsightsComputer
	maxAge time.Duration
	now    func() time.Time

	group singleflight.Group

	mu   sync.RWMutex
	last *model.AttentionInsights
}

// NewInsightsCache creates a cache in front of source.
func NewInsightsCache(source InsightsComputer, maxAge time.Duration) *InsightsCache {
	return &InsightsCache{source: source, maxAge: maxAge, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (c *InsightsCache) WithClock(now func() time.Time) *InsightsCache {
	c.now = now
	return c
}

// Get returns cached insights when still fresh, otherwise computes new ones.
func (c *InsightsCache) Get(ctx context.Context) (model.AttentionInsights, error) {
	if cached, ok := c.fresh(); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do("insights", func() (any, error) {
		if cached, ok := c.fresh(); ok {
			return cached, nil
		}
		insights, err := c.source.Compute(ctx)
		if err != nil {
			return model.AttentionInsights{}, err
		}
		if c.maxAge > 0 {
			c.mu.Lock()
			c.last = &insights
			c.mu.Unlock()
		}
		return insights, nil
	})
	if err != nil {
		return model.AttentionInsights{}, err
	}
	return v.(model.AttentionInsights), nil
}

// Invalidate drops the cached value. The next Get recomputes.
func (c *InsightsCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = nil
}

// GeneratedAt returns the generation time of the cached value, or the zero
// time when nothing is cached.
func (c *InsightsCache) GeneratedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return time.Time{}
	}
	return c.last.GeneratedAt
}

func (c *InsightsCache) fresh() (model.AttentionInsights, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil || c.maxAge <= 0 {
		return model.AttentionInsights{}, false
	}
	if c.now().Sub(c.last.GeneratedAt) >= c.maxAge {
		return model.AttentionInsights{}, false
	}
	return *c.last, true
}
