package cache

import (
	"fmt"
	"sync"
)

// Cache is a fixed-capacity, concurrency-safe LRU cache.
//
// A map gives O(1) key lookup and an index-linked list maintains recency
// order. Get promotes the entry it returns, so every public operation that
// touches an entry is a writer; all of them serialize on a single mutex.
type Cache[K comparable, V any] struct {
	mu sync.Mutex

	capacity int
	index    keyIndex[K]
	lru      *recencyList[K, V] // front = most recently used, back = least recently used

	onEvict func(key K, value V)
}

type evicted[K comparable, V any] struct {
	key   K
	value V
}

// New constructs a cache holding at most capacity entries.
//
// It returns ErrInvalidCapacity if capacity is not positive.
func New[K comparable, V any](capacity int, opts ...Option[K, V]) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}

	c := &Cache[K, V]{
		capacity: capacity,
		index:    newKeyIndex[K](capacity),
		lru:      newRecencyList[K, V](capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNew is like New but panics if the cache cannot be constructed.
func MustNew[K comparable, V any](capacity int, opts ...Option[K, V]) *Cache[K, V] {
	c, err := New(capacity, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the value stored under key and marks it most recently used.
// A miss leaves the cache untouched.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}

	c.lru.moveToFront(i)
	return c.lru.slots[i].value, true
}

// Peek returns the value stored under key without changing recency order.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return c.lru.slots[i].value, true
}

// Put stores value under key and marks it most recently used.
//
// If key is new and the cache is full, the least recently used entry is
// evicted first. Eviction and insertion happen under one lock acquisition,
// so no caller ever observes more than Cap entries.
func (c *Cache[K, V]) Put(key K, value V) {
	victim, ok := c.put(key, value)
	if ok && c.onEvict != nil {
		c.onEvict(victim.key, victim.value)
	}
}

func (c *Cache[K, V]) put(key K, value V) (victim evicted[K, V], didEvict bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index.lookup(key); ok {
		c.lru.slots[i].value = value
		c.lru.moveToFront(i)
		return victim, false
	}

	if c.lru.len() == c.capacity {
		if last, ok := c.lru.popBack(); ok {
			s := c.lru.slots[last]
			c.index.remove(s.key)
			c.lru.release(last)
			victim, didEvict = evicted[K, V]{key: s.key, value: s.value}, true
		}
	}

	i := c.lru.alloc(key, value)
	c.lru.pushFront(i)
	c.index.insert(key, i)
	return victim, didEvict
}

// Remove deletes key and reports whether it was present.
// It does not affect the recency of other entries.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index.lookup(key)
	if !ok {
		return false
	}
	c.lru.unlink(i)
	c.index.remove(key)
	c.lru.release(i)
	return true
}

// Len returns the number of entries currently stored.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.len()
}

// Cap returns the capacity the cache was constructed with.
func (c *Cache[K, V]) Cap() int {
	return c.capacity
}

// Keys returns the stored keys ordered from most to least recently used.
// It does not promote anything.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]K, 0, c.lru.len())
	for i := c.lru.front(); i != tailSlot; i = c.lru.slots[i].next {
		out = append(out, c.lru.slots[i].key)
	}
	return out
}

// Clear removes every entry and returns how many were dropped.
// Cleared entries are not evictions, so the evict hook is not called.
func (c *Cache[K, V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.lru.len()
	c.index = newKeyIndex[K](c.capacity)
	c.lru.init(c.capacity)
	return n
}
