// Package texture caches decoded image assets so the presentation side never
// decodes the same asset twice. The cache is cost-bounded: the sum of resident
// entry costs never exceeds the configured limit, and least-recently-used
// entries are evicted to make room. Eviction is a diagnostic event, never an
// error; nodes holding a cached image keep their reference alive regardless.
package texture

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Config holds cache configuration.
type Config struct {
	// SizeLimitMB is the total cost ceiling in megabytes. 0 means unbounded.
	SizeLimitMB int
}

type entry struct {
	key  string
	img  image.Image
	cost int64

	// prev and next for LRU doubly-linked list
	prev *entry
	next *entry
}

// Stats holds cache counters.
type Stats struct {
	Hits       atomic.Uint64
	Misses     atomic.Uint64
	Evictions  atomic.Uint64
	Insertions atomic.Uint64
}

// StatsSnapshot is a plain copy of the counters for diagnostics endpoints.
type StatsSnapshot struct {
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
	Insertions uint64 `json:"insertions"`
	Entries    int    `json:"entries"`
	TotalCost  int64  `json:"totalCost"`
	LimitBytes int64  `json:"limitBytes"`
}

// Cache is a thread-safe LRU texture cache. Safe for concurrent use from
// rendering callbacks.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
	total   int64
	limit   int64 // bytes; 0 = unbounded

	stats Stats
}

// New creates a cache with the given configuration.
func New(config Config) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		limit:   int64(config.SizeLimitMB) * 1024 * 1024,
	}
}

// Cost returns the resident cost of an image: stored pixel dimensions at four
// bytes per pixel.
func Cost(img image.Image) int64 {
	bounds := img.Bounds()
	return int64(bounds.Dx()) * int64(bounds.Dy()) * 4
}

// Add inserts or replaces the entry for key. When insertion would push the
// total cost past the limit, least-recently-used entries are evicted first.
// An image whose cost alone exceeds the limit is not cached at all; lookups
// for it will simply miss.
func (c *Cache) Add(key string, img image.Image) {
	if img == nil {
		return
	}
	cost := Cost(img)

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.total += cost - existing.cost
		existing.img = img
		existing.cost = cost
		c.moveToFront(existing)
	} else {
		e := &entry{key: key, img: img, cost: cost}
		c.entries[key] = e
		c.addToFront(e)
		c.total += cost
	}
	c.stats.Insertions.Add(1)

	if c.limit <= 0 {
		return
	}
	for c.total > c.limit && c.tail != nil {
		c.evict(c.tail)
	}
}

// Lookup returns the cached image for key, or false when absent.
func (c *Cache) Lookup(key string) (image.Image, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		c.stats.Misses.Add(1)
		return nil, false
	}
	c.moveToFront(e)
	img := e.img
	c.mu.Unlock()

	c.stats.Hits.Add(1)
	return img, true
}

// Remove drops the entry for key if present.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.unlink(e)
		delete(c.entries, e.key)
		c.total -= e.cost
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head = nil
	c.tail = nil
	c.total = 0
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// TotalCost returns the summed cost of resident entries in bytes.
func (c *Cache) TotalCost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Snapshot returns a copy of the counters plus occupancy.
func (c *Cache) Snapshot() StatsSnapshot {
	c.mu.Lock()
	entries := len(c.entries)
	total := c.total
	c.mu.Unlock()

	return StatsSnapshot{
		Hits:       c.stats.Hits.Load(),
		Misses:     c.stats.Misses.Load(),
		Evictions:  c.stats.Evictions.Load(),
		Insertions: c.stats.Insertions.Load(),
		Entries:    entries,
		TotalCost:  total,
		LimitBytes: c.limit,
	}
}

// evict removes an entry under lock and records the diagnostic.
func (c *Cache) evict(e *entry) {
	c.unlink(e)
	delete(c.entries, e.key)
	c.total -= e.cost
	c.stats.Evictions.Add(1)
	logrus.WithFields(logrus.Fields{
		"key":  e.key,
		"cost": e.cost,
	}).Debug("texture evicted")
}

func (c *Cache) addToFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *Cache) unlink(e *entry) {
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
