// Package cache memoises summary bundles by selection.
//
// Summaries are pure functions of (dataset, FilterSpec, thresholds). A cache
// instance is bound to one dataset and one threshold set, so FilterSpec.Key
// is a sufficient key.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/spektr-org/agrolens/engine"
)

// DefaultSize is used when New is given a non-positive size.
const DefaultSize = 256

// BundleCache is a fixed-size LRU of summary bundles. Safe for concurrent use.
type BundleCache struct {
	lru   *lru.Cache[string, *engine.SummaryBundle]
	group singleflight.Group
}

// New creates a cache holding at most size bundles.
func New(size int) (*BundleCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	l, err := lru.New[string, *engine.SummaryBundle](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle cache: %w", err)
	}
	return &BundleCache{lru: l}, nil
}

// Get returns the cached bundle for spec.
func (c *BundleCache) Get(spec engine.FilterSpec) (*engine.SummaryBundle, bool) {
	return c.lru.Get(spec.Key())
}

// Add stores a bundle. It reports whether an entry was evicted.
func (c *BundleCache) Add(spec engine.FilterSpec, bundle *engine.SummaryBundle) bool {
	return c.lru.Add(spec.Key(), bundle)
}

// Len returns the number of cached bundles.
func (c *BundleCache) Len() int { return c.lru.Len() }

// Purge empties the cache.
func (c *BundleCache) Purge() { c.lru.Purge() }

// GetOrCompute returns the cached bundle or computes, stores and returns it.
// Concurrent misses for the same key share one computation. Errors are not
// cached. The second result reports whether the bundle came from the cache.
func (c *BundleCache) GetOrCompute(spec engine.FilterSpec, compute func() (*engine.SummaryBundle, error)) (*engine.SummaryBundle, bool, error) {
	key := spec.Key()
	if b, ok := c.lru.Get(key); ok {
		return b, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if b, ok := c.lru.Get(key); ok {
			return b, nil
		}
		b, err := compute()
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, b)
		return b, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*engine.SummaryBundle), false, nil
}
