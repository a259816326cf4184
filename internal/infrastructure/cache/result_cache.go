// Package cache holds the in-process TTL cache for fused search
// responses. Nothing here survives a process restart.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ragline/ragline/internal/core/domain"
)

type entry struct {
	response  *domain.SearchResponse
	expiresAt time.Time
}

// ResultCache is a concurrency-safe TTL map. Reads never block behind
// writes to unrelated keys; concurrent writes to the same key are not
// serialized, the last write wins.
type ResultCache struct {
	entries sync.Map
	now     func() time.Time
}

func New() *ResultCache {
	return &ResultCache{now: time.Now}
}

func (c *ResultCache) Get(key string) (*domain.SearchResponse, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(entry)
	if !c.now().Before(e.expiresAt) {
		c.entries.Delete(key)
		return nil, false
	}
	return e.response, true
}

func (c *ResultCache) Set(key string, response *domain.SearchResponse, ttl time.Duration) {
	if response == nil || ttl <= 0 {
		return
	}
	c.entries.Store(key, entry{
		response:  response,
		expiresAt: c.now().Add(ttl),
	})
}

func (c *ResultCache) Invalidate(key string) {
	c.entries.Delete(key)
}

func (c *ResultCache) Purge() {
	c.entries.Range(func(key, _ any) bool {
		c.entries.Delete(key)
		return true
	})
}

func (c *ResultCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Sweep drops expired entries and reports how many were removed. Get
// already drops expired entries lazily; the sweep keeps memory bounded
// for keys that are never read again.
func (c *ResultCache) Sweep() int {
	removed := 0
	now := c.now()
	c.entries.Range(func(key, v any) bool {
		if !now.Before(v.(entry).expiresAt) {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (c *ResultCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
