package models

import "time"

// Registry event types reported by the Doma poll API.
const (
	EventNameTokenMinted      = "NAME_TOKEN_MINTED"
	EventNameTokenTransferred = "NAME_TOKEN_TRANSFERRED"
	EventNameRenewed          = "NAME_RENEWED"
	EventNameUpdated          = "NAME_UPDATED"
	EventNameDetokenized      = "NAME_DETOKENIZED"
)

// Domain claim statuses.
const (
	ClaimStatusClaimed   = "CLAIMED"
	ClaimStatusUnclaimed = "UNCLAIMED"
)

// RegistryEvent is one immutable domain lifecycle event pulled from the
// Doma poll API. UniqueID is assigned by the registry and is globally
// unique; it is the dedup key for idempotent ingestion. Rows are never
// updated or deleted after insert.
//
// Key Fields:
//   - UniqueID: registry-assigned identifier, unique across all events
//   - EventType: lifecycle action (minted, transferred, renewed, ...)
//   - DomainName: the domain the event belongs to (indexed)
//   - Price: normalized payment amount, nil when not present or unparseable
//   - CreatedAt: when this service observed the event (indexed)
type RegistryEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UniqueID   string    `gorm:"size:128;uniqueIndex;not null" json:"unique_id"`
	EventType  string    `gorm:"size:40;not null;index" json:"event_type"`
	DomainName string    `gorm:"size:255;not null;index" json:"domain_name"`
	Price      *float64  `gorm:"type:decimal(30,8)" json:"price,omitempty"`
	TxHash     *string   `gorm:"size:128" json:"tx_hash,omitempty"`
	NetworkID  *string   `gorm:"size:64" json:"network_id,omitempty"`
	CreatedAt  time.Time `gorm:"index;not null" json:"created_at"`
}

// TableName specifies the table name for RegistryEvent
func (RegistryEvent) TableName() string {
	return "events"
}

// DomainRecord is the latest known registry snapshot for a domain name.
// Upserted whenever fresh registry data is observed; optional fields merge
// with keep-existing-if-new-absent semantics (see domains.Merge), while
// UpdatedAt always advances.
type DomainRecord struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"size:255;uniqueIndex;not null" json:"name"`
	TokenID        *string    `gorm:"size:128" json:"token_id,omitempty"`
	Owner          *string    `gorm:"size:128;index" json:"owner,omitempty"`
	ClaimStatus    string     `gorm:"size:16;not null" json:"claim_status"`
	NetworkID      string     `gorm:"size:64;not null" json:"network_id"`
	TokenAddress   *string    `gorm:"size:128" json:"token_address,omitempty"`
	MintedAt       *time.Time `json:"minted_at,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName specifies the table name for DomainRecord
func (DomainRecord) TableName() string {
	return "domains"
}

// TrendScoreRecord is the persisted composite trend score for a domain,
// one row per domain name, overwritten on each recompute. Score is always
// the fixed weighted function of the four breakdown columns.
type TrendScoreRecord struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DomainName      string    `gorm:"size:255;uniqueIndex;not null" json:"domain_name"`
	Score           float64   `gorm:"not null;index" json:"score"`
	SearchVolume    float64   `gorm:"not null" json:"search_volume"`
	TrendDirection  float64   `gorm:"not null" json:"trend_direction"`
	OnChainActivity float64   `gorm:"not null" json:"on_chain_activity"`
	Rarity          float64   `gorm:"not null" json:"rarity"`
	LastUpdated     time.Time `gorm:"index;not null" json:"last_updated"`
	DataPoints      int       `gorm:"default:1" json:"data_points"`
	Confidence      float64   `gorm:"default:0.5" json:"confidence"`
}

// TableName specifies the table name for TrendScoreRecord
func (TrendScoreRecord) TableName() string {
	return "trend_scores"
}

// AiInsightRecord caches the most recent LLM commentary for a domain.
// The list fields are stored as JSON-encoded text columns. Freshness is
// judged by CreatedAt, independently from the trend score's LastUpdated.
type AiInsightRecord struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DomainName      string    `gorm:"size:255;uniqueIndex;not null" json:"domain_name"`
	TrendScore      float64   `gorm:"not null" json:"trend_score"`
	Summary         string    `gorm:"type:text;not null" json:"summary"`
	Sentiment       string    `gorm:"size:16" json:"sentiment"`
	Confidence      float64   `json:"confidence"`
	KeyHighlights   string    `gorm:"type:text" json:"key_highlights"`
	Recommendations string    `gorm:"type:text" json:"recommendations"`
	RiskFactors     string    `gorm:"type:text" json:"risk_factors"`
	CreatedAt       time.Time `gorm:"index;not null" json:"created_at"`
}

// TableName specifies the table name for AiInsightRecord
func (AiInsightRecord) TableName() string {
	return "ai_insights"
}

// ApiUsage tracks daily call counts against external services with paid
// quotas. Date is a YYYY-MM-DD day key; (service, date) is unique and the
// count is only ever incremented.
type ApiUsage struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Service string `gorm:"size:64;not null;uniqueIndex:idx_api_usage_service_date" json:"service"`
	Date    string `gorm:"size:10;not null;uniqueIndex:idx_api_usage_service_date" json:"date"`
	Count   int    `gorm:"default:0" json:"count"`
}

// TableName specifies the table name for ApiUsage
func (ApiUsage) TableName() string {
	return "api_usage"
}
