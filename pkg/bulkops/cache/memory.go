package cache

import (
	"context"
	"sync"
	"time"
)

// memoryEntry is one cached value with its expiry deadline.
type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache implementation. Expired entries are
// dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get returns the cached value or ErrMiss when absent or expired.
func (c *MemoryCache) Get(ctx context.Context, key, tenantID string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[entryKey(key, tenantID)]
	c.mu.RUnlock()

	if !ok {
		return "", ErrMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, entryKey(key, tenantID))
		c.mu.Unlock()
		return "", ErrMiss
	}
	return entry.value, nil
}

// Set stores the value. A zero ttl means the entry never expires.
func (c *MemoryCache) Set(ctx context.Context, key, tenantID, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[entryKey(key, tenantID)] = memoryEntry{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
	return nil
}

// Invalidate removes the entry if present.
func (c *MemoryCache) Invalidate(ctx context.Context, key, tenantID string) error {
	c.mu.Lock()
	delete(c.entries, entryKey(key, tenantID))
	c.mu.Unlock()
	return nil
}
