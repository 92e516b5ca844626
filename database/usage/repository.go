package usage

import (
	"errors"
	"fmt"

	models "domatrend/database/models_pkg"

	"gorm.io/gorm"
)

// Repository tracks daily call counts against quota-limited external
// services. Counts only ever go up; the day key rolls over naturally.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new API usage repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Count returns the recorded number of calls for a service on a day
// (date formatted YYYY-MM-DD). Unknown (service, date) pairs count as zero.
func (r *Repository) Count(service, date string) (int, error) {
	var record models.ApiUsage
	err := r.db.Where("service = ? AND date = ?", service, date).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return record.Count, nil
}

// Increment bumps the counter for (service, date) by one. The upsert is a
// single statement so concurrent callers cannot lose increments.
func (r *Repository) Increment(service, date string) error {
	err := r.db.Exec(
		`INSERT INTO api_usage (service, date, count) VALUES (?, ?, 1)
		 ON CONFLICT (service, date) DO UPDATE SET count = api_usage.count + 1`,
		service, date,
	).Error
	if err != nil {
		return fmt.Errorf("Increment: %w", err)
	}
	return nil
}
