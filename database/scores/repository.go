package scores

import (
	"errors"
	"fmt"
	"time"

	models "domatrend/database/models_pkg"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists trend scores, one row per domain name with
// last-writer-wins overwrite semantics.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new trend score repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the stored score for a domain, or nil when none exists
func (r *Repository) Get(domainName string) (*models.TrendScoreRecord, error) {
	var record models.TrendScoreRecord
	err := r.db.Where("domain_name = ?", domainName).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &record, nil
}

// Upsert overwrites the score row for the record's domain name
func (r *Repository) Upsert(record *models.TrendScoreRecord) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain_name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "search_volume", "trend_direction", "on_chain_activity",
			"rarity", "last_updated", "data_points", "confidence",
		}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// Top returns the highest-scored domains in descending score order
func (r *Repository) Top(limit int) ([]models.TrendScoreRecord, error) {
	var records []models.TrendScoreRecord
	query := r.db.Order("score DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("Top: %w", err)
	}
	return records, nil
}

// Stale returns scores last updated before the cutoff, oldest first
func (r *Repository) Stale(cutoff time.Time, limit int) ([]models.TrendScoreRecord, error) {
	var records []models.TrendScoreRecord
	query := r.db.Where("last_updated < ?", cutoff).Order("last_updated ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("Stale: %w", err)
	}
	return records, nil
}

// Count returns the number of scored domains
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.TrendScoreRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}
