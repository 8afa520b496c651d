package backend

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

type lookupCache struct {
	store *cache.Cache
	group singleflight.Group
}

func newLookupCache(ttl time.Duration) *lookupCache {
	return &lookupCache{store: cache.New(ttl, 2*ttl)}
}

// cached serves op/key from the lookup cache. fetch reports whether its value is worth
// keeping; failed lookups ("success": false) are never stored. Concurrent misses for the
// same key share one request, and a caller giving up does not cancel it for the others.
func cached[T any](c *Client, ctx context.Context, op, key string, fetch func(context.Context) (T, bool, error)) (T, error) {
	if c.cache == nil {
		v, _, err := fetch(ctx)
		return v, err
	}

	cacheKey := op + ":" + key
	if v, ok := c.cache.store.Get(cacheKey); ok {
		c.metrics.CacheHit(op)
		return v.(T), nil
	}
	c.metrics.CacheMiss(op)

	// The shared fetch outlives any one caller; do still bounds it with the client timeout.
	ch := c.cache.group.DoChan(cacheKey, func() (any, error) {
		v, keep, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		if keep {
			c.cache.store.SetDefault(cacheKey, v)
		}
		return v, nil
	})
	var zero T
	select {
	case <-ctx.Done():
		return zero, transportError(op, c.baseURL, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
