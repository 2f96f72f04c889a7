// Package cache holds the process-wide tab data cache: the most recently
// loaded dataset for each tab identity.
package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/smileynet/quickdash/internal/dataset"
)

// LoadFunc produces a dataset for a cache miss.
type LoadFunc func() (*dataset.Dataset, error)

// Cache maps tab identity to its last loaded dataset. Entries are never
// evicted by the cache itself; Invalidate drops them explicitly.
//
// The map is guarded, but GetOrLoad runs the loader outside the lock. Two
// concurrent cold loads for the same identity both call their loader and the
// last store wins. WithLoadOnce collapses them into a single call.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*dataset.Dataset
	loadOnce bool
	group    singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLoadOnce makes concurrent misses for the same identity share one
// loader call.
func WithLoadOnce() Option {
	return func(c *Cache) { c.loadOnce = true }
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{entries: make(map[string]*dataset.Dataset)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached dataset for id, or nil and false on miss.
func (c *Cache) Get(id string) (*dataset.Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ds, ok := c.entries[id]
	return ds, ok
}

// Put stores ds under id, replacing any existing entry.
func (c *Cache) Put(id string, ds *dataset.Dataset) {
	c.mu.Lock()
	c.entries[id] = ds
	c.mu.Unlock()
}

// GetOrLoad returns the cached dataset for id, calling load on a miss.
// A failed load stores nothing and the error is returned unchanged, so the
// next call retries from scratch.
func (c *Cache) GetOrLoad(id string, load LoadFunc) (*dataset.Dataset, error) {
	if ds, ok := c.Get(id); ok {
		return ds, nil
	}
	if c.loadOnce {
		return c.loadShared(id, load)
	}
	ds, err := load()
	if err != nil {
		return nil, err
	}
	c.Put(id, ds)
	return ds, nil
}

func (c *Cache) loadShared(id string, load LoadFunc) (*dataset.Dataset, error) {
	v, err, _ := c.group.Do(id, func() (any, error) {
		if ds, ok := c.Get(id); ok {
			return ds, nil
		}
		ds, err := load()
		if err != nil {
			return nil, err
		}
		c.Put(id, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Dataset), nil
}

// Invalidate drops the entries for ids. With no ids it clears the cache.
func (c *Cache) Invalidate(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(ids) == 0 {
		c.entries = make(map[string]*dataset.Dataset)
		return
	}
	for _, id := range ids {
		delete(c.entries, id)
	}
}

// Len returns the number of cached identities.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
