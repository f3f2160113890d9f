// internal/database/connection.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/digitalhippo/hippo-backend/internal/config"
	"github.com/digitalhippo/hippo-backend/internal/models"
	"github.com/digitalhippo/hippo-backend/internal/store"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Info
	switch cfg.LogLevel {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn":
		logLevel = logger.Warn
	}

	gormConfig := &gorm.Config{
		Logger: logger.New(logrus.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// Enable UUID extension
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.ProductFile{},
		&models.Product{},
		&models.Order{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db)

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_products ON users USING GIN(products)",
		"CREATE INDEX IF NOT EXISTS idx_products_storefront ON products(approved_for_sale, category, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_products ON orders USING GIN(products)",
		"CREATE INDEX IF NOT EXISTS idx_products_search ON products USING GIN(to_tsvector('english', name || ' ' || coalesce(description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}

// OpenStore returns the record store selected by cfg.Database.Driver and a
// func releasing it. Postgres stores are migrated before use.
func OpenStore(cfg *config.Config) (store.RecordStore, func(), error) {
	if cfg.Database.Driver == "memory" {
		logrus.Warn("Using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	db, err := Initialize(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := RunMigrations(db); err != nil {
		Close(db)
		return nil, nil, err
	}
	return store.NewGormStore(db), func() { Close(db) }, nil
}

// SeedAdmin creates the configured admin account unless a user with that
// email already exists. It writes to the store directly, so role and
// password hash are set without going through client access rules.
func SeedAdmin(ctx context.Context, records store.RecordStore, cfg config.AdminConfig) (bool, error) {
	if cfg.Email == "" || cfg.Password == "" {
		logrus.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set; skipping admin seed")
		return false, nil
	}

	existing, _, err := records.Find(ctx, models.CollectionUsers,
		store.Filter{store.Where("email", store.Equals, cfg.Email)}, store.FindOptions{Limit: 1})
	if err != nil {
		return false, fmt.Errorf("failed to look up admin: %w", err)
	}
	if len(existing) > 0 {
		return false, nil
	}

	hash, err := models.HashPassword(cfg.Password)
	if err != nil {
		return false, fmt.Errorf("failed to set admin password: %w", err)
	}

	if _, err := records.Create(ctx, models.CollectionUsers, models.JSONB{
		"email":        cfg.Email,
		"passwordHash": hash,
		"role":         string(models.RoleAdmin),
		"_verified":    true,
	}); err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("email", cfg.Email).Info("Default admin user created successfully")
	return true, nil
}
