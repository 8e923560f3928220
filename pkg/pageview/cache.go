package pageview

import (
	"container/list"
	"hash/fnv"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// sweepInterval is the minimum gap between opportunistic expired-entry
// sweeps, per spec.md §4.6 ("sweep expired entries if >= 10 min since the
// last sweep"). There is no background ticker — a goroutine that outlives
// its engine is worse than a slightly stale cache — the check happens
// inline on every Put, mirroring the teacher's cache.QueryCache shape
// (container/list LRU + map) but replacing its single flat TTL with a
// per-entry TTL assigned at insert time.
const sweepInterval = 10 * time.Minute

// TTLForWindow derives a top-N cache entry's time-to-live from how recent
// its window's end date is relative to now, per spec.md §4.6:
//
//	end within 1 day of now:  15 min
//	end within 7 days:        1 hour
//	end within 30 days:       6 hours
//	otherwise:                24 hours
func TTLForWindow(end, now time.Time) time.Duration {
	days := math.Abs(now.Sub(end).Hours() / 24)
	switch {
	case days <= 1:
		return 15 * time.Minute
	case days <= 7:
		return time.Hour
	case days <= 30:
		return 6 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// TopNKey returns the cache key for a (start, end, N) top_categories
// request.
func TopNKey(start, end time.Time, n int) uint64 {
	h := fnv.New64a()
	h.Write([]byte(start.Format("2006-01-02")))
	h.Write([]byte(end.Format("2006-01-02")))
	h.Write([]byte(strconv.Itoa(n)))
	return h.Sum64()
}

type topNEntry struct {
	key       uint64
	results   []CategoryResult
	expiresAt time.Time
}

// TopNCache is the Top-N query cache (C6) protecting top_categories, the
// most expensive query. LRU-bounded with per-entry TTL, following the
// container/list + map shape of the teacher's query cache.
type TopNCache struct {
	mu sync.Mutex

	maxSize   int
	list      *list.List
	items     map[uint64]*list.Element
	lastSweep time.Time

	hits   uint64
	misses uint64
}

// NewTopNCache creates an empty top-N cache bounded to maxSize entries.
func NewTopNCache(maxSize int) *TopNCache {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &TopNCache{
		maxSize: maxSize,
		list:    list.New(),
		items:   make(map[uint64]*list.Element, maxSize),
	}
}

// Get returns the cached result for key if present and not expired as of
// now.
func (c *TopNCache) Get(key uint64, now time.Time) ([]CategoryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	entry := elem.Value.(*topNEntry)
	if now.After(entry.expiresAt) {
		c.removeElement(elem)
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	c.list.MoveToFront(elem)
	atomic.AddUint64(&c.hits, 1)
	return entry.results, true
}

// Put inserts or replaces the cached result for key with the given TTL
// (see TTLForWindow), evicting the least-recently-used entry if the cache
// is at capacity, then opportunistically sweeping expired entries.
func (c *TopNCache) Put(key uint64, results []CategoryResult, ttl time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*topNEntry)
		entry.results = results
		entry.expiresAt = now.Add(ttl)
		c.list.MoveToFront(elem)
	} else {
		for c.list.Len() >= c.maxSize {
			c.evictOldest()
		}
		entry := &topNEntry{key: key, results: results, expiresAt: now.Add(ttl)}
		c.items[key] = c.list.PushFront(entry)
	}

	if c.lastSweep.IsZero() || now.Sub(c.lastSweep) >= sweepInterval {
		c.sweepExpired(now)
		c.lastSweep = now
	}
}

func (c *TopNCache) sweepExpired(now time.Time) {
	for e := c.list.Back(); e != nil; {
		prev := e.Prev()
		entry := e.Value.(*topNEntry)
		if now.After(entry.expiresAt) {
			c.removeElement(e)
		}
		e = prev
	}
}

func (c *TopNCache) evictOldest() {
	if elem := c.list.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *TopNCache) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	entry := elem.Value.(*topNEntry)
	delete(c.items, entry.key)
}

// Len returns the number of entries currently cached, expired or not.
func (c *TopNCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

// Stats returns cache hit/miss counters accumulated since creation.
func (c *TopNCache) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}
