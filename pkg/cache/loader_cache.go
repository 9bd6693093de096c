// Package cache provides a small loader cache combining LRU storage with
// singleflight so concurrent misses for the same key share one load.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoaderCache caches values by string key, loading on miss via a callback.
// A burst of N concurrent misses for one key runs a single load; the rest wait
// for and share that result.
type LoaderCache[V any] struct {
	lru   *lru.Cache[string, V]
	group singleflight.Group
}

// New creates a loader cache holding at most maxEntries values.
func New[V any](maxEntries int) (*LoaderCache[V], error) {
	lruCache, err := lru.New[string, V](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LoaderCache[V]{lru: lruCache}, nil
}

// Get returns the cached value for key, loading it via load on miss.
func (c *LoaderCache[V]) Get(ctx context.Context, key string, load func(context.Context, string) (V, error)) (V, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		loaded, loadErr := load(ctx, key)
		if loadErr != nil {
			return zero[V](), loadErr
		}
		c.lru.Add(key, loaded)
		return loaded, nil
	})
	if err != nil {
		return zero[V](), err
	}

	return val.(V), nil
}

// Add stores a value without going through a loader.
func (c *LoaderCache[V]) Add(key string, value V) {
	c.lru.Add(key, value)
}

// Invalidate removes the entry for key.
func (c *LoaderCache[V]) Invalidate(key string) {
	c.lru.Remove(key)
}

// Len returns the number of cached entries.
func (c *LoaderCache[V]) Len() int {
	return c.lru.Len()
}

func zero[V any]() (z V) { return z }
