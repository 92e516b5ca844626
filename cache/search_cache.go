package cache

import (
	"context"
	"fmt"
	"time"

	"domatrend/database/types"
)

// SearchCache stores search metrics in Redis so cached trend signals
// survive restarts and are shared between instances. Redis handles the
// TTL; a miss or any Redis error is reported as a plain cache miss.
type SearchCache struct {
	redis *RedisClient
}

// NewSearchCache creates a Redis-backed search metrics cache
func NewSearchCache(redis *RedisClient) *SearchCache {
	return &SearchCache{redis: redis}
}

// Get retrieves cached metrics for a keyword
func (c *SearchCache) Get(ctx context.Context, keyword string) (types.SearchMetrics, bool) {
	if c.redis == nil {
		return types.SearchMetrics{}, false
	}

	var metrics types.SearchMetrics
	if err := c.redis.Get(ctx, searchKey(keyword), &metrics); err != nil {
		return types.SearchMetrics{}, false
	}
	return metrics, true
}

// Set caches metrics for a keyword with the given TTL
func (c *SearchCache) Set(ctx context.Context, keyword string, metrics types.SearchMetrics, ttl time.Duration) {
	if c.redis == nil {
		return
	}
	// Best effort: a failed write just means the next read goes upstream
	_ = c.redis.Set(ctx, searchKey(keyword), metrics, ttl)
}

func searchKey(keyword string) string {
	return fmt.Sprintf("trends:metrics:%s", keyword)
}
