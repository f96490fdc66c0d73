package database

import (
	"fmt"
	"papertrader/src/database/migrations"
	"papertrader/src/model"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MainDB is the primary read/write ledger connection used by the application.
var MainDB *gorm.DB

// InitMainDB initializes the main (read/write) ledger connection and runs migrations.
// This should be called once at application startup (e.g. in main()).
func InitMainDB() error {

	config := GetConfig()
	db, err := gorm.Open(mainDialector(config),
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to get DB from GORM")
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	// Assign to the global variable only after a successful connection.
	MainDB = db

	logrus.Info("[database] MainDB connection established")

	// Prepare legacy ledger columns before AutoMigrate so a trades table
	// written by an earlier schema (text timestamps) can be normalized
	// without failing casts.
	if err := migrations.PrepareLegacyLedger(MainDB); err != nil {
		return fmt.Errorf("failed to prepare legacy ledger: %w", err)
	}

	// Run AutoMigrate only on the main database.
	// Add here all models that belong to the write-side schema.
	if err := MainDB.AutoMigrate(
		&model.Trade{},
		&model.StrategyPerformance{},
		&model.PaperOrder{},
		&model.TradeEvent{},
		&model.Exception{},
		&model.OHLCVCrypto1m{},
		&model.OHLCVCrypto1h{},
		&migrations.DataMigration{},
	); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	if err := migrations.Run(MainDB); err != nil {
		return fmt.Errorf("failed to run data migrations on MainDB: %w", err)
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}
