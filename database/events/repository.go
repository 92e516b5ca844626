package events

import (
	"fmt"

	models "domatrend/database/models_pkg"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the append-only event store for registry lifecycle events.
// Events are keyed by the registry-assigned unique id; appending a duplicate
// is a no-op, which makes re-delivery from the poll API harmless.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new event store repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Append inserts an event unless its unique id was already stored.
// Returns true when the row was newly inserted, false when a record with
// the same unique id already existed.
func (r *Repository) Append(event *models.RegistryEvent) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "unique_id"}},
		DoNothing: true,
	}).Create(event)
	if result.Error != nil {
		return false, fmt.Errorf("Append: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Exists reports whether an event with the given unique id is stored
func (r *Repository) Exists(uniqueID string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.RegistryEvent{}).
		Where("unique_id = ?", uniqueID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return count > 0, nil
}

// ByDomain returns the most recent events for an exact domain name
func (r *Repository) ByDomain(domainName string, limit int) ([]models.RegistryEvent, error) {
	var events []models.RegistryEvent
	query := r.db.Where("domain_name = ?", domainName).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("ByDomain: %w", err)
	}
	return events, nil
}

// ByKeyword returns the most recent events whose domain name contains the
// keyword. Used when a domain has no exact-match events, to pick up
// subdomain and keyword variants.
func (r *Repository) ByKeyword(keyword string, limit int) ([]models.RegistryEvent, error) {
	var events []models.RegistryEvent
	query := r.db.Where("domain_name LIKE ?", "%"+keyword+"%").Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("ByKeyword: %w", err)
	}
	return events, nil
}

// Recent returns the most recently observed events across all domains
func (r *Repository) Recent(limit int) ([]models.RegistryEvent, error) {
	var events []models.RegistryEvent
	query := r.db.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return events, nil
}

// Count returns the total number of stored events
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.RegistryEvent{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}
