// Package client is the Go caller of the storefront API. It keeps a local
// read cache of server entities and routes every mutation through
// WithOptimisticUpdate so that the cache converges on server truth.
package client

import (
	"strings"
	"sync"
)

// Cache keys used by Client
const (
	KeyCart          = "cart"
	KeyOrdersPrefix  = "orders:"
	KeyPaymentsMine  = "payments:mine"
	keyOrderPrefix   = "order:"
	keyPaymentPrefix = "payment:"
)

// OrderKey is the cache key of one order
func OrderKey(id string) string { return keyOrderPrefix + id }

// PaymentKey is the cache key of one payment
func PaymentKey(id string) string { return keyPaymentPrefix + id }

type entry struct {
	value any
	stale bool
}

// Cache is a concurrency-safe read cache. A key that was never set or was
// dropped reports stale, so callers always refetch it.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	inflight map[string]struct{}
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{
		entries:  make(map[string]*entry),
		inflight: make(map[string]struct{}),
	}
}

// Snapshot is the exact state of one key at a point in time
type Snapshot struct {
	Key     string
	Value   any
	Present bool
	Stale   bool
}

// Get returns the cached value of key
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Lookup returns the cached value of key when it holds a T
func Lookup[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Set stores a server-confirmed value and marks it fresh
func (c *Cache) Set(key string, value any) {
	c.put(key, value, false)
}

func (c *Cache) put(key string, value any, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, stale: stale}
}

// Delete drops key
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Snapshot captures key so that Restore can put it back exactly
func (c *Cache) Snapshot(key string) Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot{Key: key}
	}
	return Snapshot{Key: key, Value: e.value, Present: true, Stale: e.stale}
}

// Restore puts a key back to the captured state, including absence
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !s.Present {
		delete(c.entries, s.Key)
		return
	}
	c.entries[s.Key] = &entry{value: s.Value, stale: s.Stale}
}

// MarkStale flags the given keys for refetch on next read
func (c *Cache) MarkStale(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		if e, ok := c.entries[k]; ok {
			e.stale = true
		}
	}
}

// IsStale reports whether key must be refetched
func (c *Cache) IsStale(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return !ok || e.stale
}

// Invalidate marks stale every key starting with one of the prefixes. An
// exact key is its own prefix.
func (c *Cache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		for _, p := range prefixes {
			if strings.HasPrefix(k, p) {
				e.stale = true
				break
			}
		}
	}
}

// Keys returns the cached keys, fresh or not
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *Cache) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[key]; busy {
		return false
	}
	c.inflight[key] = struct{}{}
	return true
}

func (c *Cache) release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
}
