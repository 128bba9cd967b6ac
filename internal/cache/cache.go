package cache

import "sync"

// Cache is a generic thread-safe LRU cache with a hard entry limit.
// When an insertion would exceed the limit, the least recently used entry
// is evicted and the eviction callback, if any, is invoked with its value.
//
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	limit   int
	onEvict func(V)

	// Recency list threaded through the entries themselves, most recently
	// used at head. Eviction pops the tail.
	head *entry[K, V]
	tail *entry[K, V]
}

// entry is a cached value and its links in the recency list.
type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

// New creates a cache holding at most limit entries. A limit of 0 means
// unlimited. onEvict may be nil; it is invoked while the cache lock is
// held, so it must not call back into the cache.
func New[K comparable, V any](limit int, onEvict func(V)) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		limit:   limit,
		onEvict: onEvict,
	}
}

// Get retrieves a value and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.touch(e)
	return e.value, true
}

// Set stores a value. An existing value under the same key is evicted
// first (its callback runs), then the limit is enforced.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.detach(old)
		delete(c.entries, key)
		if c.onEvict != nil {
			c.onEvict(old.value)
		}
	}

	c.insert(&entry[K, V]{key: key, value: value})
	c.evictOverLimit()
}

// GetOrCreate returns the cached value or creates it under the lock so
// concurrent callers never create the same entry twice.
func (c *Cache[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.touch(e)
		return e.value
	}

	value := create()
	c.insert(&entry[K, V]{key: key, value: value})
	c.evictOverLimit()
	return value
}

// Delete removes an entry without running the eviction callback; the
// caller takes ownership of the value.
func (c *Cache[K, V]) Delete(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.detach(e)
	delete(c.entries, key)
	return e.value, true
}

// Clear evicts every entry, running the callback for each.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for _, e := range c.entries {
			c.onEvict(e.value)
		}
	}
	c.entries = make(map[K]*entry[K, V])
	c.head = nil
	c.tail = nil
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Limit returns the entry limit of the cache.
func (c *Cache[K, V]) Limit() int { return c.limit }

// insert links e at the head of the recency list and records it in the
// map. Caller must hold c.mu.
func (c *Cache[K, V]) insert(e *entry[K, V]) {
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
	c.entries[e.key] = e
}

// touch moves e to the head of the recency list. Caller must hold c.mu.
func (c *Cache[K, V]) touch(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.detach(e)
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

// detach unlinks e from the recency list. Caller must hold c.mu.
func (c *Cache[K, V]) detach(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

// evictOverLimit pops tail entries until the cache fits its limit.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOverLimit() {
	for c.limit > 0 && len(c.entries) > c.limit {
		oldest := c.tail
		if oldest == nil {
			return
		}
		c.detach(oldest)
		delete(c.entries, oldest.key)
		if c.onEvict != nil {
			c.onEvict(oldest.value)
		}
	}
}
