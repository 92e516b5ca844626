package cache

import (
	"context"
	"sync"
	"time"

	"domatrend/database/types"
)

type memoryEntry struct {
	expiresAt time.Time
	metrics   types.SearchMetrics
}

// MemoryMetricsCache is an in-process TTL cache for search metrics, keyed
// by keyword. Expiry is lazy: entries are checked and evicted on read.
// Used when Redis is unavailable, and by tests via the injectable clock.
type MemoryMetricsCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryMetricsCache creates an empty in-memory metrics cache
func NewMemoryMetricsCache() *MemoryMetricsCache {
	return &MemoryMetricsCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the cache's time source (tests only)
func (c *MemoryMetricsCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Get returns the live cached metrics for a keyword. Expired entries are
// removed on the spot and reported as a miss.
func (c *MemoryMetricsCache) Get(_ context.Context, keyword string) (types.SearchMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[keyword]
	if !ok {
		return types.SearchMetrics{}, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, keyword)
		return types.SearchMetrics{}, false
	}
	return entry.metrics, true
}

// Set stores metrics for a keyword with the given TTL
func (c *MemoryMetricsCache) Set(_ context.Context, keyword string, metrics types.SearchMetrics, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[keyword] = memoryEntry{
		expiresAt: c.now().Add(ttl),
		metrics:   metrics,
	}
}

// Len reports the number of entries currently held, expired or not
func (c *MemoryMetricsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
