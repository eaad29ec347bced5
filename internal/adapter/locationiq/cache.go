package locationiq

import (
	"context"
	"sync"

	"github.com/couchcryptid/burn-risk/internal/domain"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache keyed by
// quantized grid cell, so repeated lookups within a cell cost one call.
type CachedGeocoder struct {
	inner      domain.Geocoder
	resolution float64
	cache      *lruCache
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, resolution float64, maxEntries int) *CachedGeocoder {
	return &CachedGeocoder{
		inner:      inner,
		resolution: resolution,
		cache:      newLRUCache(maxEntries),
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	key := domain.CellKey(lat, lng, c.resolution)
	if name, ok := c.cache.get(key); ok {
		return name, nil
	}
	name, err := c.inner.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return name, err
	}
	// Only cache non-empty names so transient "not found" responses can be retried.
	if name != "" {
		c.cache.put(key, name)
	}
	return name, nil
}

// lruCache is a simple thread-safe LRU cache for place names.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value string
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
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
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
