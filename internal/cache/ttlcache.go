// Package cache provides a generic, thread-safe TTL-aware LRU cache, used
// by internal/backend/caching to memoize resolve.Resolver results between
// identical queries without involving whatever backend actually answered
// them.
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// EntryType categorizes cached responses for different TTL handling.
type EntryType int

const (
	Positive EntryType = iota // successful response with answers
	NXDomain                  // non-existent domain
	NoData                    // name exists but no data for the query type
	ServFail                  // server failure
)

// String returns the human-readable name of the entry type.
func (t EntryType) String() string {
	switch t {
	case Positive:
		return "positive"
	case NXDomain:
		return "nxdomain"
	case NoData:
		return "nodata"
	case ServFail:
		return "servfail"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// entry holds a cached value with expiration and LRU tracking.
type entry[V any] struct {
	value     V
	cachedAt  time.Time
	expiresAt time.Time
	entryType EntryType
	elem      *list.Element
}

// TTLCache is a thread-safe, TTL-aware LRU cache.
//
// Positive entries use the caller-supplied TTL capped at maxTTL. Negative
// entries (NXDomain, NoData, ServFail) use a separate, much shorter cap —
// caching a failure for as long as a normal record's TTL would pin an
// outage in place long after the upstream has recovered.
type TTLCache[K comparable, V any] struct {
	mu sync.Mutex

	maxTTL          time.Duration
	maxEntries      int
	negativeEnabled bool
	maxNegativeTTL  time.Duration

	lru  *list.List
	data map[K]*entry[V]

	hits         int
	misses       int
	negativeHits int
}

// NewTTLCache creates a cache holding at most maxEntries items.
func NewTTLCache[K comparable, V any](maxEntries int) *TTLCache[K, V] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &TTLCache[K, V]{
		maxTTL:          24 * time.Hour,
		maxEntries:      maxEntries,
		negativeEnabled: true,
		maxNegativeTTL:  1 * time.Hour,
		lru:             list.New(),
		data:            map[K]*entry[V]{},
	}
}

// Get retrieves a value from the cache. Expired entries are removed and
// count as misses.
func (c *TTLCache[K, V]) Get(key K) (V, bool, EntryType) {
	var zero V
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.data[key]
	if e == nil {
		c.misses++
		return zero, false, Positive
	}
	if !e.expiresAt.After(now) {
		c.lru.Remove(e.elem)
		delete(c.data, key)
		c.misses++
		return zero, false, Positive
	}

	c.lru.MoveToBack(e.elem)
	c.hits++
	if e.entryType != Positive {
		c.negativeHits++
	}
	return e.value, true, e.entryType
}

// Set stores a value with the given TTL and entry type. TTL is capped based
// on entry type; entries with TTL <= 0 (after capping) are not stored.
func (c *TTLCache[K, V]) Set(key K, val V, ttl time.Duration, entryType EntryType) {
	if ttl <= 0 {
		return
	}
	ttl = c.capTTL(ttl, entryType)
	if ttl <= 0 {
		return
	}

	expires := time.Now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing := c.data[key]; existing != nil {
		existing.value = val
		existing.cachedAt = time.Now()
		existing.expiresAt = expires
		existing.entryType = entryType
		c.lru.MoveToBack(existing.elem)
		return
	}

	e := &entry[V]{value: val, cachedAt: time.Now(), expiresAt: expires, entryType: entryType}
	e.elem = c.lru.PushBack(key)
	c.data[key] = e

	c.evictOldest()
}

// Stats reports hit/miss counters for monitoring.
type Stats struct {
	Hits         int
	Misses       int
	NegativeHits int
	Entries      int
}

// Stats returns a snapshot of the cache's hit/miss counters.
func (c *TTLCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, NegativeHits: c.negativeHits, Entries: len(c.data)}
}

func (c *TTLCache[K, V]) capTTL(ttl time.Duration, entryType EntryType) time.Duration {
	switch entryType {
	case ServFail, NXDomain, NoData:
		if !c.negativeEnabled {
			return 0
		}
		if ttl > c.maxNegativeTTL {
			return c.maxNegativeTTL
		}
	default: // Positive
		if ttl > c.maxTTL {
			return c.maxTTL
		}
	}
	return ttl
}

func (c *TTLCache[K, V]) evictOldest() {
	for len(c.data) > c.maxEntries {
		front := c.lru.Front()
		if front == nil {
			break
		}
		k := front.Value.(K)
		c.lru.Remove(front)
		delete(c.data, k)
	}
}
