package data

import (
	"sync"
	"time"
)

// Entry is one cached response. Value holds the decoded payload so a
// not-modified answer can be served without parsing the body again.
type Entry struct {
	ETag      string
	Payload   []byte
	FetchedAt time.Time
	Value     interface{}
}

// IsFresh reports whether an entry fetched at fetchedAt is still within ttl
// at now. Fresh entries are revalidated conditionally; stale ones are only
// used when the service cannot be reached.
func IsFresh(entry Entry, now time.Time, ttl time.Duration) bool {
	if entry.FetchedAt.IsZero() || ttl <= 0 {
		return false
	}
	return now.Sub(entry.FetchedAt) < ttl
}

// MemoryCache implements EntryCache using in-memory storage
type MemoryCache struct {
	cache map[string]Entry
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]Entry),
	}
}

// Get retrieves an entry if present
func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.cache[key]
	return entry, exists
}

// Set replaces the entry for key
func (c *MemoryCache) Set(key string, entry Entry) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache[key] = entry
}

// Delete removes the entry for key
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.cache, key)
}

// Clear removes all cached entries
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string]Entry)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}
