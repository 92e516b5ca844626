// Package trends provides search-interest metrics for domain keywords. It
// wraps the SerpAPI Google Trends endpoint behind a TTL cache and a daily
// quota guard, and degrades to deterministic synthetic metrics whenever
// live data cannot be fetched. Callers always receive a usable
// SearchMetrics value.
package trends

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"domatrend/config"
	"domatrend/database/types"
)

// ServiceName is the quota accounting key for the search-trend provider
const ServiceName = "serpapi-google-trends"

// Cache is the TTL cache the provider reads through. Implemented by
// cache.SearchCache (Redis) and cache.MemoryMetricsCache.
type Cache interface {
	Get(ctx context.Context, keyword string) (types.SearchMetrics, bool)
	Set(ctx context.Context, keyword string, metrics types.SearchMetrics, ttl time.Duration)
}

// UsageStore tracks daily external call counts. Implemented by
// usage.Repository.
type UsageStore interface {
	Count(service, date string) (int, error)
	Increment(service, date string) error
}

// Provider serves search metrics per domain name
type Provider struct {
	cfg          config.SerpAPIConfig
	analysisDays int
	cache        Cache
	usage        UsageStore
	client       *http.Client
	now          func() time.Time
}

// NewProvider creates a search-signal provider
func NewProvider(cfg config.SerpAPIConfig, analysisDays int, c Cache, u UsageStore) *Provider {
	return &Provider{
		cfg:          cfg,
		analysisDays: analysisDays,
		cache:        c,
		usage:        u,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		},
		now: time.Now,
	}
}

// SetClock overrides the provider's time source (tests only)
func (p *Provider) SetClock(now func() time.Time) {
	p.now = now
}

// Keyword derives the cache/query key from a domain name: the lowercase
// text before the first dot.
func Keyword(domainName string) string {
	lowered := strings.ToLower(domainName)
	if idx := strings.IndexByte(lowered, '.'); idx > 0 {
		return lowered[:idx]
	}
	return lowered
}

// Metrics returns search-interest metrics for a domain name. Live data is
// used when the provider is enabled, under quota, and reachable; every
// other path yields cached or synthetic metrics.
func (p *Provider) Metrics(ctx context.Context, domainName string) types.SearchMetrics {
	keyword := Keyword(domainName)

	if cached, ok := p.cache.Get(ctx, keyword); ok {
		return cached
	}

	if p.cfg.UseMockData || !p.cfg.Enabled || p.cfg.APIKey == "" {
		metrics := p.Synthetic(keyword)
		p.cacheMetrics(ctx, keyword, metrics)
		return metrics
	}

	today := p.today()
	count, err := p.usage.Count(ServiceName, today)
	if err != nil {
		log.Printf("⚠️  Search usage lookup failed, using synthetic metrics for %q: %v", keyword, err)
		metrics := p.Synthetic(keyword)
		p.cacheMetrics(ctx, keyword, metrics)
		return metrics
	}
	if count >= p.cfg.DailyLimit {
		log.Printf("⚠️  Search daily quota reached (%d/%d), using synthetic metrics for %q", count, p.cfg.DailyLimit, keyword)
		metrics := p.Synthetic(keyword)
		p.cacheMetrics(ctx, keyword, metrics)
		return metrics
	}

	metrics, err := p.fetchLive(ctx, keyword)
	if err != nil {
		log.Printf("⚠️  Search-trend request failed for %q, falling back to synthetic metrics: %v", keyword, err)
		fallback := p.Synthetic(keyword)
		p.cacheMetrics(ctx, keyword, fallback)
		return fallback
	}

	p.cacheMetrics(ctx, keyword, metrics)
	if err := p.usage.Increment(ServiceName, today); err != nil {
		log.Printf("⚠️  Failed to record search API usage: %v", err)
	}
	return metrics
}

func (p *Provider) cacheMetrics(ctx context.Context, keyword string, metrics types.SearchMetrics) {
	ttl := time.Duration(p.cfg.CacheTTLMinutes) * time.Minute
	p.cache.Set(ctx, keyword, metrics, ttl)
}

func (p *Provider) today() string {
	return p.now().UTC().Format("2006-01-02")
}

func (p *Provider) timeRange() (time.Time, time.Time) {
	end := p.now()
	start := end.Add(-time.Duration(p.analysisDays) * 24 * time.Hour)
	return start, end
}
