package database

import (
	"context"
	"fmt"
	"time"

	"github.com/selfdrive/rentals/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func ConnectDB(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
		Logger:                                   logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Order{},
		&models.PriceHistory{},
		&models.Car{},
		&models.SystemTemplate{},
		&models.CancellationReason{},
		&models.Notification{},
		&models.Setting{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SeedTemplates inserts a default template for every slug the pipeline sends.
// Existing rows are left alone so admin edits survive restarts.
func SeedTemplates(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	for _, tmpl := range DefaultTemplates() {
		tmpl := tmpl
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, DoNothing: true}).
			Create(&tmpl)
		if res.Error != nil {
			return fmt.Errorf("seed template %s: %w", tmpl.Slug, res.Error)
		}
		if res.RowsAffected > 0 {
			log.Info("Seeded default template", zap.String("slug", tmpl.Slug))
		}
	}
	return nil
}

var defaultReasons = []string{
	"Vehicle unavailable for the selected dates",
	"Customer requested cancellation",
	"Documents could not be verified",
	"Payment not received",
}

// SeedCancellationReasons fills the reason list only when it is empty.
func SeedCancellationReasons(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.CancellationReason{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count cancellation reasons: %w", err)
	}
	if count > 0 {
		return nil
	}
	reasons := make([]models.CancellationReason, 0, len(defaultReasons))
	for _, r := range defaultReasons {
		reasons = append(reasons, models.CancellationReason{Reason: r, Active: true})
	}
	if err := db.WithContext(ctx).Create(&reasons).Error; err != nil {
		return fmt.Errorf("seed cancellation reasons: %w", err)
	}
	return nil
}
