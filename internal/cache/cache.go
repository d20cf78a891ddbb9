// Package cache memoises named derived views against a version counter.
package cache

import (
	"slices"
	"sort"
)

type entry[V any] struct {
	version uint64
	value   V
}

// Cache maps a fixed set of view names to the last computed result. An entry
// answers only while its recorded version equals the caller's current one.
// There is no eviction: the name set is bounded by the views registered at
// startup and each recompute overwrites its entry.
type Cache[V any] struct {
	entries map[string]entry[V]
}

func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]entry[V])}
}

// Get returns the value cached for name if it was computed at version.
func (c *Cache[V]) Get(name string, version uint64) (V, bool) {
	e, ok := c.entries[name]
	if !ok || e.version != version {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set overwrites the entry for name.
func (c *Cache[V]) Set(name string, version uint64, value V) {
	c.entries[name] = entry[V]{version: version, value: value}
}

func (c *Cache[V]) Invalidate(name string) {
	delete(c.entries, name)
}

func (c *Cache[V]) Clear() {
	clear(c.entries)
}

func (c *Cache[V]) Len() int {
	return len(c.entries)
}

// Names returns the cached view names in sorted order.
func (c *Cache[V]) Names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return slices.Clip(names)
}
