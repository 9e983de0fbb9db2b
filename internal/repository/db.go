// Package repository contains the repository layer for the SPX Analytics API
package repository

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/nsvirk/spxanalytics/internal/config"
	"github.com/nsvirk/spxanalytics/internal/models"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SchemaName is the postgres schema holding the application tables
var SchemaName = "spx"

// ConnectDatabase connects to the configured database and migrates the tables
func ConnectDatabase(cfg *config.Config) (*gorm.DB, error) {
	zaplogger.Info(config.SingleLine)
	zaplogger.Info("Initializing Database", zaplogger.Fields{"driver": cfg.DatabaseDriver})
	zaplogger.Info(config.SingleLine)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.DatabaseLogLevel)),
	}

	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "sqlite":
		dialector = sqlite.Open(sqliteDSN(cfg.DatabaseDsn))
	default:
		dialector = postgres.Open(cfg.DatabaseDsn + " search_path=" + SchemaName + ",public")
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DatabaseDriver, err)
	}
	zaplogger.Info("  * connected")

	if db.Dialector.Name() == "sqlite" {
		// sqlite allows a single writer, and an in-memory database lives on one connection
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", SchemaName)).Error; err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		zaplogger.Info("  * migrating scheme: \"" + SchemaName + "\"")
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the application tables
func AutoMigrate(db *gorm.DB) error {
	zaplogger.Info("  * migrating tables")
	// one call, so gorm orders assets before the prices that reference them
	err := db.AutoMigrate(&models.AssetModel{}, &models.PriceModel{}, &models.SyncRunModel{})
	if err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	for _, name := range []string{models.AssetsTableName, models.PricesTableName, models.SyncRunsTableName} {
		zaplogger.Info("    - \"" + name + "\"")
	}
	return nil
}

// sqliteDSN turns on foreign keys so deletes cascade to prices
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
