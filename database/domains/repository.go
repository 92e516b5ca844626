package domains

import (
	"errors"
	"fmt"
	"time"

	models "domatrend/database/models_pkg"

	"gorm.io/gorm"
)

// Repository stores registry snapshots per domain name.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new domain repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the stored record for a domain name, or nil when unknown
func (r *Repository) Get(name string) (*models.DomainRecord, error) {
	var record models.DomainRecord
	err := r.db.Where("name = ?", name).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &record, nil
}

// Upsert inserts a fresh registry snapshot, or merges it into the existing
// row via Merge when the domain is already known.
func (r *Repository) Upsert(incoming *models.DomainRecord) error {
	now := time.Now()

	existing, err := r.Get(incoming.Name)
	if err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}

	if existing == nil {
		incoming.CreatedAt = now
		incoming.UpdatedAt = now
		if err := r.db.Create(incoming).Error; err != nil {
			return fmt.Errorf("Upsert: %w", err)
		}
		return nil
	}

	merged := Merge(existing, incoming, now)
	if err := r.db.Save(merged).Error; err != nil {
		return fmt.Errorf("Upsert: %w", err)
	}
	return nil
}

// Count returns the number of tracked domains
func (r *Repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.DomainRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

// Merge applies the coalesce-on-conflict upsert policy: incoming values win
// when present, existing values are kept when the incoming field is absent,
// and UpdatedAt always advances to now. Kept as an explicit function (not a
// SQL ON CONFLICT clause) so the policy is testable without a database.
func Merge(existing, incoming *models.DomainRecord, now time.Time) *models.DomainRecord {
	merged := *existing

	merged.TokenID = coalesceString(incoming.TokenID, existing.TokenID)
	merged.Owner = coalesceString(incoming.Owner, existing.Owner)
	merged.TokenAddress = coalesceString(incoming.TokenAddress, existing.TokenAddress)
	merged.MintedAt = coalesceTime(incoming.MintedAt, existing.MintedAt)
	merged.LastActivityAt = coalesceTime(incoming.LastActivityAt, existing.LastActivityAt)

	if incoming.ClaimStatus != "" {
		merged.ClaimStatus = incoming.ClaimStatus
	}
	if incoming.NetworkID != "" {
		merged.NetworkID = incoming.NetworkID
	}

	merged.UpdatedAt = now
	return &merged
}

func coalesceString(incoming, existing *string) *string {
	if incoming != nil && *incoming != "" {
		return incoming
	}
	return existing
}

func coalesceTime(incoming, existing *time.Time) *time.Time {
	if incoming != nil && !incoming.IsZero() {
		return incoming
	}
	return existing
}
