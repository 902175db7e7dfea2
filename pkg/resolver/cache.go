package resolver

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/cuin/pkg/metrics"
)

// DefaultCacheSize bounds each resolver cache.
const DefaultCacheSize = 8192

// Cache is the narrow get/insert capability the resolver needs.
//
// Implementations must be safe for concurrent use. Values are pure
// functions of their keys, so two workers computing the same miss and both
// inserting is harmless.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Insert(key K, value V)
}

// ConcurrentCache is a thread-safe bounded LRU cache.
type ConcurrentCache[K comparable, V any] struct {
	name  string
	inner *lru.Cache[K, V]
}

// NewConcurrentCache creates a cache holding up to size entries. name labels
// the cache in metrics. A non-positive size selects DefaultCacheSize.
func NewConcurrentCache[K comparable, V any](name string, size int) *ConcurrentCache[K, V] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New only fails for non-positive sizes.
	inner, _ := lru.New[K, V](size)
	return &ConcurrentCache[K, V]{name: name, inner: inner}
}

// Get returns the cached value for key.
func (c *ConcurrentCache[K, V]) Get(key K) (V, bool) {
	v, ok := c.inner.Get(key)
	metrics.CacheLookup(c.name, ok)
	return v, ok
}

// Insert stores value under key.
func (c *ConcurrentCache[K, V]) Insert(key K, value V) {
	c.inner.Add(key, value)
}

// Len returns the number of cached entries.
func (c *ConcurrentCache[K, V]) Len() int {
	return c.inner.Len()
}

// NoCache never stores anything. Used when caching is disabled so every
// lookup recomputes.
type NoCache[K comparable, V any] struct{}

// Get always misses.
func (NoCache[K, V]) Get(K) (V, bool) {
	var zero V
	return zero, false
}

// Insert discards the value.
func (NoCache[K, V]) Insert(K, V) {}
