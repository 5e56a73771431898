// internal/database/connection.go
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/amoghku/marketplace-pim/internal/config"
	"github.com/amoghku/marketplace-pim/internal/models"
)

// Initialize opens the pool. Driver errors are translated so duplicate keys
// surface as gorm.ErrDuplicatedKey.
func Initialize(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connection established successfully")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func Close(db *gorm.DB, log logrus.FieldLogger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection")
	} else {
		log.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB, log logrus.FieldLogger) error {
	log.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.Currency{},
		&models.SalesChannel{},
		&models.Vendor{},
		&models.Category{},
		&models.Collection{},
		&models.Product{},
		&models.ValuePerPoint{},
		&models.ApprovalTask{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db, log)

	log.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB, log logrus.FieldLogger) {
	indexes := []string{
		// Catalog
		"CREATE INDEX IF NOT EXISTS idx_categories_workflow ON categories(workflow_status, sync_status)",
		"CREATE INDEX IF NOT EXISTS idx_collections_workflow ON collections(workflow_status, sync_status)",
		"CREATE INDEX IF NOT EXISTS idx_collections_schedule ON collections(scheduled_start, scheduled_end)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_slug_unique ON categories(slug) WHERE slug <> '' AND deleted_at IS NULL",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_collections_slug_unique ON collections(slug) WHERE slug <> '' AND deleted_at IS NULL",

		// Value per point rows are replaced wholesale, one row per currency and channel.
		"CREATE INDEX IF NOT EXISTS idx_value_per_points_owner ON value_per_points(owner_type, owner_id, created_at)",

		// Approval tasks
		"CREATE INDEX IF NOT EXISTS idx_approval_tasks_entity ON approval_tasks(entity_type, entity_id)",
		"CREATE INDEX IF NOT EXISTS idx_approval_tasks_status ON approval_tasks(workflow_status, priority)",
		"CREATE INDEX IF NOT EXISTS idx_approval_tasks_created_at ON approval_tasks(created_at DESC)",

		// Products
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('english', title || ' ' || description))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}

// SeedInitialData inserts the reference rows value per point overrides need.
func SeedInitialData(db *gorm.DB, log logrus.FieldLogger) error {
	log.Info("Seeding initial data...")

	err := WithTransaction(db, func(tx *gorm.DB) error {
		currencies := []models.Currency{
			{Code: "INR", Name: "Indian Rupee", Symbol: "₹"},
			{Code: "USD", Name: "US Dollar", Symbol: "$"},
			{Code: "EUR", Name: "Euro", Symbol: "€"},
		}
		for _, currency := range currencies {
			currency := currency
			if err := tx.Where(models.Currency{Code: currency.Code}).FirstOrCreate(&currency).Error; err != nil {
				return fmt.Errorf("failed to seed currency %s: %w", currency.Code, err)
			}
		}

		var channelCount int64
		if err := tx.Model(&models.SalesChannel{}).Count(&channelCount).Error; err != nil {
			return fmt.Errorf("failed to count sales channels: %w", err)
		}
		if channelCount > 0 {
			return nil
		}

		channel := &models.SalesChannel{Name: "Default Sales Channel", Description: "Created by seed"}
		if err := tx.Create(channel).Error; err != nil {
			return fmt.Errorf("failed to seed sales channel: %w", err)
		}
		log.WithField("sales_channel_id", channel.ID).Info("Default sales channel created")
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("Initial data seeding completed")
	return nil
}

// WithTransaction runs fn in a transaction and rolls back on error or panic.
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
