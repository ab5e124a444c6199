package engine

import (
	"container/list"
	"sync"

	"github.com/niik/frequency-counters/pkg/counter"
)

// LRUCache is a thread-safe Least Recently Used (LRU) cache of counters.
//
// The cache maintains a fixed maximum size and evicts the least recently
// used counter when the capacity is exceeded. This is what lets the engine
// observe an unbounded key space (users, IPs, API keys) with bounded
// memory: each live key costs one counter, and the cache bounds the number
// of live keys.
//
// Implementation details:
// - Uses a doubly-linked list (container/list) for LRU ordering
// - Uses a map for O(1) key lookups
// - All operations are protected by a single mutex
//
// The mutex only guards the cache index. Recording and reading samples
// happens on the lock-free counter after the lookup, outside this lock.
//
// Thread-safe: All methods are safe for concurrent use by multiple
// goroutines.
//
// Time complexity:
// - Get: O(1)
// - Put/PutIfAbsent: O(1)
// - Eviction: O(1) amortized
type LRUCache struct {
	mu        sync.Mutex
	maxSize   int
	items     map[string]*list.Element
	evictList *list.List
	onEvict   func(key string)
}

// entry is the value stored in the linked list.
// It carries the key so eviction can delete the map entry.
type entry struct {
	key     string
	counter *counter.Counter
}

// NewLRUCache creates a new LRU cache with the specified maximum size.
//
// Parameters:
//   - maxSize: Maximum number of counters to cache (must be > 0; callers validate)
//   - onEvict: Called with the evicted key whenever capacity forces an
//     eviction (may be nil)
//
// "Recently used" is determined by Get, Put and PutIfAbsent calls.
func NewLRUCache(maxSize int, onEvict func(key string)) *LRUCache {
	return &LRUCache{
		maxSize:   maxSize,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		onEvict:   onEvict,
	}
}

// Get retrieves a counter from the cache and marks it as recently used.
//
// If the key exists it is moved to the front of the LRU list. If the key
// does not exist, returns (nil, false).
func (c *LRUCache) Get(key string) (*counter.Counter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}

	c.evictList.MoveToFront(elem)
	return elem.Value.(*entry).counter, true
}

// Put adds or replaces a counter in the cache and marks it as recently
// used.
//
// If the key already exists its counter is replaced and it moves to the
// front. If the key is new and the cache is at capacity, the least
// recently used entry is evicted before inserting.
func (c *LRUCache) Put(key string, ctr *counter.Counter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		elem.Value.(*entry).counter = ctr
		return
	}

	elem := c.evictList.PushFront(&entry{key: key, counter: ctr})
	c.items[key] = elem

	if c.evictList.Len() > c.maxSize {
		c.removeOldest()
	}
}

// PutIfAbsent adds a counter only if the key doesn't already exist.
//
// This is the atomic "check and insert" the engine's get-or-create path
// relies on: when several goroutines race to create the first counter for
// a key, exactly one insertion wins and the losers receive the winner's
// counter.
//
// If the key already exists:
//   - The existing counter is returned
//   - The provided counter is NOT inserted
//   - The existing entry moves to the front (marked recently used)
//
// If the key does not exist:
//   - The provided counter is inserted
//   - nil is returned
//   - If at capacity, the least recently used entry is evicted
func (c *LRUCache) PutIfAbsent(key string, ctr *counter.Counter) *counter.Counter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		return elem.Value.(*entry).counter
	}

	elem := c.evictList.PushFront(&entry{key: key, counter: ctr})
	c.items[key] = elem

	if c.evictList.Len() > c.maxSize {
		c.removeOldest()
	}

	return nil
}

// Len returns the current number of entries in the cache.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// removeOldest evicts the least recently used entry.
// Must be called with c.mu held.
func (c *LRUCache) removeOldest() {
	elem := c.evictList.Back()
	if elem == nil {
		return
	}

	c.evictList.Remove(elem)
	ent := elem.Value.(*entry)
	delete(c.items, ent.key)

	if c.onEvict != nil {
		c.onEvict(ent.key)
	}
}
