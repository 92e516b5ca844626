package insights

import (
	"encoding/json"
	"errors"
	"fmt"

	models "domatrend/database/models_pkg"
	"domatrend/database/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository caches AI insights, one row per domain name, overwritten on
// regeneration. List fields are stored as JSON text columns.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new AI insight repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the cached insight row for a domain, or nil when none exists
func (r *Repository) Get(domainName string) (*models.AiInsightRecord, error) {
	var record models.AiInsightRecord
	err := r.db.Where("domain_name = ?", domainName).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &record, nil
}

// Upsert overwrites the insight row for the record's domain name
func (r *Repository) Upsert(record *models.AiInsightRecord) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"trend_score", "summary", "sentiment", "confidence",
			"key_highlights", "recommendations", "risk_factors", "created_at",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// Encode converts an insight value into its storage row
func Encode(domainName string, trendScore float64, insight *types.AiInsight) *models.AiInsightRecord {
	return &models.AiInsightRecord{
		DomainName:      domainName,
		TrendScore:      trendScore,
		Summary:         insight.Summary,
		Sentiment:       insight.Sentiment,
		Confidence:      insight.Confidence,
		KeyHighlights:   marshalList(insight.KeyHighlights),
		Recommendations: marshalList(insight.Recommendations),
		RiskFactors:     marshalList(insight.RiskFactors),
	}
}

// Decode converts a storage row back into the insight value served to callers
func Decode(record *models.AiInsightRecord) *types.AiInsight {
	return &types.AiInsight{
		Summary:         record.Summary,
		Sentiment:       record.Sentiment,
		Confidence:      record.Confidence,
		KeyHighlights:   unmarshalList(record.KeyHighlights),
		Recommendations: unmarshalList(record.Recommendations),
		RiskFactors:     unmarshalList(record.RiskFactors),
	}
}

func marshalList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalList(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}
