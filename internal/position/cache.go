package position

import (
	"fmt"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/tracemap/internal/source"
)

// DefaultCacheCapacity bounds the in-memory index cache.
const DefaultCacheCapacity = 50

// Cache memoizes built indexes keyed by source path plus content hash. A
// content change produces a different key, so edited files rebuild while
// the stale index ages out of the capacity-bounded cache.
type Cache struct {
	indexes otter.Cache[string, *Index]
	opts    BuildOptions
}

// NewCache builds a cache with the given capacity. Zero or negative means
// DefaultCacheCapacity.
func NewCache(capacity int, opts *BuildOptions) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if opts == nil {
		opts = DefaultBuildOptions()
	}
	indexes, err := otter.MustBuilder[string, *Index](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build position cache: %w", err)
	}
	return &Cache{indexes: indexes, opts: *opts}, nil
}

// Get returns the cached index for the source, if present.
func (c *Cache) Get(src *source.Text) (*Index, bool) {
	return c.indexes.Get(src.CacheKey())
}

// GetOrBuild returns the cached index for the source, building and caching
// it on a miss. A hit returns exactly what a fresh build would.
func (c *Cache) GetOrBuild(src *source.Text) *Index {
	key := src.CacheKey()
	if ix, ok := c.indexes.Get(key); ok {
		return ix
	}
	ix := Build(src, &c.opts)
	c.indexes.Set(key, ix)
	return ix
}

// Invalidate drops the cached index for the source.
func (c *Cache) Invalidate(src *source.Text) {
	c.indexes.Delete(src.CacheKey())
}

// Len reports the number of cached indexes.
func (c *Cache) Len() int { return c.indexes.Size() }

// Close releases the cache's background resources.
func (c *Cache) Close() { c.indexes.Close() }
