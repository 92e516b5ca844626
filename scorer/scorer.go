// Package scorer computes and serves composite trend scores for domain
// names. A stored score younger than the freshness window is served as-is;
// stale or force-requested scores are recomputed from the search-signal
// provider and the on-chain aggregator, persisted, and enriched with AI
// commentary in the background.
package scorer

import (
	"context"
	"log"
	"sync"
	"time"

	models "domatrend/database/models_pkg"
	"domatrend/database/types"
)

// EventStore reads stored registry events (events.Repository)
type EventStore interface {
	ByDomain(domainName string, limit int) ([]models.RegistryEvent, error)
	ByKeyword(keyword string, limit int) ([]models.RegistryEvent, error)
}

// DomainStore reads and upserts domain snapshots (domains.Repository)
type DomainStore interface {
	Get(name string) (*models.DomainRecord, error)
	Upsert(record *models.DomainRecord) error
}

// ScoreStore persists trend scores (scores.Repository)
type ScoreStore interface {
	Get(domainName string) (*models.TrendScoreRecord, error)
	Upsert(record *models.TrendScoreRecord) error
	Top(limit int) ([]models.TrendScoreRecord, error)
}

// InsightStore persists AI insight rows (insights.Repository)
type InsightStore interface {
	Get(domainName string) (*models.AiInsightRecord, error)
	Upsert(record *models.AiInsightRecord) error
}

// Registry resolves domain snapshots from the external registry (doma.Client)
type Registry interface {
	DomainByName(ctx context.Context, domainName string) (*models.DomainRecord, error)
}

// SearchProvider supplies search-interest metrics (trends.Provider).
// Implementations must always return a usable value; fallbacks are theirs.
type SearchProvider interface {
	Metrics(ctx context.Context, domainName string) types.SearchMetrics
}

// InsightGenerator produces AI commentary (llm.Analyzer). A nil result
// without error means "no insight available".
type InsightGenerator interface {
	Generate(ctx context.Context, req types.InsightRequest) (*types.AiInsight, error)
}

// Broadcaster fans score updates out to realtime subscribers (realtime.Broker)
type Broadcaster interface {
	PublishScore(update types.ScoreUpdate)
}

// InsightDecoder converts an insight row back to its value form. Wired to
// insights.Decode; indirected so the scorer stays storage-agnostic.
type InsightDecoder func(record *models.AiInsightRecord) *types.AiInsight

// InsightEncoder converts an insight value to its storage row. Wired to
// insights.Encode.
type InsightEncoder func(domainName string, trendScore float64, insight *types.AiInsight) *models.AiInsightRecord

// Scorer orchestrates the scoring pipeline
type Scorer struct {
	events   EventStore
	domains  DomainStore
	scores   ScoreStore
	insights InsightStore
	registry Registry
	search   SearchProvider

	generator     InsightGenerator // nil disables enrichment
	decodeInsight InsightDecoder
	encodeInsight InsightEncoder
	broker        Broadcaster // nil disables broadcasting

	freshness  time.Duration
	insightTTL time.Duration
	now        func() time.Time

	// one recompute in flight per domain name
	locks sync.Map
}

// Options bundles the scorer's collaborators
type Options struct {
	Events        EventStore
	Domains       DomainStore
	Scores        ScoreStore
	Insights      InsightStore
	Registry      Registry
	Search        SearchProvider
	Generator     InsightGenerator
	DecodeInsight InsightDecoder
	EncodeInsight InsightEncoder
	Broker        Broadcaster
	Freshness     time.Duration
	InsightTTL    time.Duration
}

// New creates a trend scorer
func New(opts Options) *Scorer {
	return &Scorer{
		events:        opts.Events,
		domains:       opts.Domains,
		scores:        opts.Scores,
		insights:      opts.Insights,
		registry:      opts.Registry,
		search:        opts.Search,
		generator:     opts.Generator,
		decodeInsight: opts.DecodeInsight,
		encodeInsight: opts.EncodeInsight,
		broker:        opts.Broker,
		freshness:     opts.Freshness,
		insightTTL:    opts.InsightTTL,
		now:           time.Now,
	}
}

// SetClock overrides the scorer's time source (tests only)
func (s *Scorer) SetClock(now func() time.Time) {
	s.now = now
}

// UpdateTrendScore returns the trend score for a domain, recomputing it
// when the stored score is stale or forceUpdate is set. A fresh stored
// score is returned untouched, with the cached AI insight attached when
// one exists and is itself fresh.
func (s *Scorer) UpdateTrendScore(ctx context.Context, domainName string, forceUpdate bool) (*types.TrendScore, error) {
	unlock := s.lock(domainName)
	defer unlock()

	if !forceUpdate {
		existing, err := s.scores.Get(domainName)
		if err != nil {
			return nil, err
		}
		if existing != nil && s.now().Sub(existing.LastUpdated) < s.freshness {
			score := recordToScore(existing)
			score.AiAnalysis = s.cachedInsight(domainName)
			return score, nil
		}
	}

	return s.recompute(ctx, domainName)
}

// TopTrending returns the highest-scored domains, best first
func (s *Scorer) TopTrending(limit int) ([]types.TrendScore, error) {
	records, err := s.scores.Top(limit)
	if err != nil {
		return nil, err
	}

	scores := make([]types.TrendScore, 0, len(records))
	for i := range records {
		scores = append(scores, *recordToScore(&records[i]))
	}
	return scores, nil
}

// recompute runs the full scoring pipeline for one domain
func (s *Scorer) recompute(ctx context.Context, domainName string) (*types.TrendScore, error) {
	searchMetrics := s.search.Metrics(ctx, domainName)
	onChain := s.onChainMetrics(ctx, domainName)

	now := s.now()
	breakdown := types.ScoreBreakdown{
		SearchVolume:    NormalizeSearchVolume(searchMetrics.Volume),
		TrendDirection:  TrendDirectionScore(searchMetrics.Trend),
		OnChainActivity: OnChainActivityScore(onChain),
		Rarity:          onChain.Rarity,
	}

	score := &types.TrendScore{
		DomainName: domainName,
		Score:      WeightedScore(breakdown),
		Breakdown:  breakdown,
		Metadata: types.ScoreMetadata{
			LastUpdated: now,
			DataPoints:  len(searchMetrics.RelatedQueries) + onChain.TransactionCount,
			Confidence:  Confidence(searchMetrics, onChain, now),
		},
	}

	if err := s.scores.Upsert(scoreToRecord(score)); err != nil {
		return nil, err
	}
	log.Printf("📈 Trend score updated for %s: %.2f (confidence %.2f)",
		domainName, score.Score, score.Metadata.Confidence)

	if s.broker != nil {
		s.broker.PublishScore(types.ScoreUpdate{
			DomainName: domainName,
			Score:      score.Score,
			Confidence: score.Metadata.Confidence,
			UpdatedAt:  now,
		})
	}

	// Fire-and-forget enrichment: the caller never waits on it and only
	// ever observes its outcome through the insight cache.
	go s.enrich(domainName, *score, searchMetrics, onChain)

	return score, nil
}

// enrich generates and persists AI commentary for a freshly scored domain.
// Runs on its own goroutine with its own error boundary; every failure
// path ends in a log line, never in a caller-visible error.
func (s *Scorer) enrich(domainName string, score types.TrendScore, search types.SearchMetrics, onChain types.OnChainMetrics) {
	if s.generator == nil {
		return
	}

	cached, err := s.insights.Get(domainName)
	if err != nil {
		log.Printf("⚠️  Insight cache lookup failed for %s: %v", domainName, err)
	} else if cached != nil && s.now().Sub(cached.CreatedAt) < s.insightTTL {
		return
	}

	insight, err := s.generator.Generate(context.Background(), types.InsightRequest{
		DomainName:    domainName,
		TrendScore:    score,
		SearchMetrics: search,
		OnChain:       onChain,
	})
	if err != nil {
		log.Printf("⚠️  AI analysis failed for %s: %v", domainName, err)
		return
	}
	if insight == nil {
		return
	}

	record := s.encodeInsight(domainName, score.Score, insight)
	record.CreatedAt = s.now()
	if err := s.insights.Upsert(record); err != nil {
		log.Printf("⚠️  Failed to persist AI insight for %s: %v", domainName, err)
		return
	}
	log.Printf("🤖 AI insight generated for %s", domainName)
}

// cachedInsight returns the domain's insight when one is cached and still
// within its freshness window.
func (s *Scorer) cachedInsight(domainName string) *types.AiInsight {
	if s.decodeInsight == nil {
		return nil
	}
	record, err := s.insights.Get(domainName)
	if err != nil {
		log.Printf("⚠️  Insight lookup failed for %s: %v", domainName, err)
		return nil
	}
	if record == nil || s.now().Sub(record.CreatedAt) >= s.insightTTL {
		return nil
	}
	return s.decodeInsight(record)
}

func (s *Scorer) lock(domainName string) func() {
	v, _ := s.locks.LoadOrStore(domainName, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func recordToScore(record *models.TrendScoreRecord) *types.TrendScore {
	return &types.TrendScore{
		DomainName: record.DomainName,
		Score:      record.Score,
		Breakdown: types.ScoreBreakdown{
			SearchVolume:    record.SearchVolume,
			TrendDirection:  record.TrendDirection,
			OnChainActivity: record.OnChainActivity,
			Rarity:          record.Rarity,
		},
		Metadata: types.ScoreMetadata{
			LastUpdated: record.LastUpdated,
			DataPoints:  record.DataPoints,
			Confidence:  record.Confidence,
		},
	}
}

func scoreToRecord(score *types.TrendScore) *models.TrendScoreRecord {
	return &models.TrendScoreRecord{
		DomainName:      score.DomainName,
		Score:           score.Score,
		SearchVolume:    score.Breakdown.SearchVolume,
		TrendDirection:  score.Breakdown.TrendDirection,
		OnChainActivity: score.Breakdown.OnChainActivity,
		Rarity:          score.Breakdown.Rarity,
		LastUpdated:     score.Metadata.LastUpdated,
		DataPoints:      score.Metadata.DataPoints,
		Confidence:      score.Metadata.Confidence,
	}
}
