// Package types holds value structs shared across the scoring pipeline.
// Keeping them here (rather than in the services that produce them) avoids
// circular imports between the scorer, the search-signal provider, and the
// LLM enrichment layer.
package types

import "time"

// SearchMetrics is the normalized search-interest signal for a keyword.
// Volume is 0-100, Trend is -1..1, RelatedQueries carries at most five
// entries. Ephemeral: lives only in the TTL cache.
type SearchMetrics struct {
	Volume         float64            `json:"volume"`
	Trend          float64            `json:"trend"`
	RelatedQueries []string           `json:"related_queries"`
	GeographicData map[string]float64 `json:"geographic_data"`
	TimeRangeStart time.Time          `json:"time_range_start"`
	TimeRangeEnd   time.Time          `json:"time_range_end"`
}

// OnChainMetrics is derived from stored registry events plus the domain
// snapshot. Always recomputed, never persisted.
type OnChainMetrics struct {
	TransactionCount int     `json:"transaction_count"`
	UniqueOwners     int     `json:"unique_owners"`
	AveragePrice     float64 `json:"average_price"`
	Liquidity        float64 `json:"liquidity"`
	Rarity           float64 `json:"rarity"`
}

// ScoreBreakdown holds the four normalized 0-100 components the final
// score is composed from.
type ScoreBreakdown struct {
	SearchVolume    float64 `json:"search_volume"`
	TrendDirection  float64 `json:"trend_direction"`
	OnChainActivity float64 `json:"on_chain_activity"`
	Rarity          float64 `json:"rarity"`
}

// ScoreMetadata describes how the score was produced.
type ScoreMetadata struct {
	LastUpdated time.Time `json:"last_updated"`
	DataPoints  int       `json:"data_points"`
	Confidence  float64   `json:"confidence"`
}

// TrendScore is the composite trend score served to callers. AiAnalysis is
// attached when a fresh cached insight exists and is nil otherwise; its
// absence is "not yet available", never an error.
type TrendScore struct {
	DomainName string         `json:"domain_name"`
	Score      float64        `json:"score"`
	Breakdown  ScoreBreakdown `json:"breakdown"`
	Metadata   ScoreMetadata  `json:"metadata"`
	AiAnalysis *AiInsight     `json:"ai_analysis,omitempty"`
}

// AiInsight is the structured LLM commentary for a domain.
type AiInsight struct {
	Summary         string   `json:"summary"`
	Sentiment       string   `json:"sentiment"`
	Confidence      float64  `json:"confidence"`
	KeyHighlights   []string `json:"key_highlights"`
	Recommendations []string `json:"recommendations"`
	RiskFactors     []string `json:"risk_factors"`
}

// InsightRequest bundles everything the LLM prompt embeds.
type InsightRequest struct {
	DomainName    string
	TrendScore    TrendScore
	SearchMetrics SearchMetrics
	OnChain       OnChainMetrics
}

// ScoreUpdate is the payload broadcast to realtime subscribers whenever a
// trend score is recomputed.
type ScoreUpdate struct {
	DomainName string    `json:"domain_name"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PollerStatus is a snapshot of the registry poll loop.
type PollerStatus struct {
	Running       bool      `json:"running"`
	LastPollAt    time.Time `json:"last_poll_at"`
	LastBatchSize int       `json:"last_batch_size"`
	TotalIngested int64     `json:"total_ingested"`
	LastAckID     int64     `json:"last_ack_id"`
}
