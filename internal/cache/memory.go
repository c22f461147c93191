package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	tags    map[string]struct{}
	expires time.Time
}

// MemoryCache is the in-process LookupCache backend.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryEntry)}
}

// Set stores data under the namespaced key with an absolute expiry.
func (c *MemoryCache) Set(key string, data []byte, tags []string, ttlMinutes int) error {
	tagSet := make(map[string]struct{})
	for _, t := range withBaseTag(tags) {
		tagSet[t] = struct{}{}
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[MakeKey(key)] = memoryEntry{
		data:    buf,
		tags:    tagSet,
		expires: expiry(ttlMinutes),
	}
	return nil
}

// Get returns the data for key, or false if absent or expired.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[MakeKey(key)]
	if !ok || time.Now().After(item.expires) {
		return nil, false
	}
	return item.data, true
}

// Delete removes a single entry.
func (c *MemoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, MakeKey(key))
	return nil
}

// Clear removes every entry carrying all of the given tags. With no tags it
// purges the whole base-tag namespace, which is every entry.
func (c *MemoryCache) Clear(tags ...string) error {
	want := withBaseTag(tags)

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, item := range c.items {
		matched := true
		for _, t := range want {
			if _, ok := item.tags[t]; !ok {
				matched = false
				break
			}
		}
		if matched {
			delete(c.items, key)
		}
	}
	return nil
}
