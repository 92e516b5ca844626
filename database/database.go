// Package database provides the GORM/PostgreSQL connection and schema
// management for the domatrend scoring service.
//
// Data models live in the models_pkg package to avoid circular import
// dependencies; per-table repositories live in the events, domains,
// scores, insights and usage subpackages.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "domatrend/database/models_pkg"
)

// Database holds the GORM database connection and provides access to the
// underlying DB instance. It is the single connection point for all
// repositories in the application.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Database{db: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema performs auto-migration for all persisted tables
func (d *Database) InitSchema() error {
	fmt.Println("🔄 Starting database schema initialization...")

	err := d.db.AutoMigrate(
		&RegistryEvent{},
		&DomainRecord{},
		&TrendScoreRecord{},
		&AiInsightRecord{},
		&ApiUsage{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	fmt.Println("✅ Database schema ready")
	return nil
}

// ============================================================================
// Type Aliases
// ============================================================================

// Core data models - aliased so callers can keep importing the database
// package directly instead of models_pkg.

type RegistryEvent = models.RegistryEvent
type DomainRecord = models.DomainRecord
type TrendScoreRecord = models.TrendScoreRecord
type AiInsightRecord = models.AiInsightRecord
type ApiUsage = models.ApiUsage
