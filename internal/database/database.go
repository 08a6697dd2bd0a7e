package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Subhasishpanda1777/Cipher7/internal/config"
	logging "github.com/Subhasishpanda1777/Cipher7/internal/logging"
	"github.com/Subhasishpanda1777/Cipher7/internal/models"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Open connects to the configured database without touching the global handle.
func Open(dbConf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	gormConf := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	}

	switch dbConf.Driver {
	case "", "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port, dbConf.SSLMode)
		// lib/pq is the database/sql driver underneath gorm's postgres dialector.
		return gorm.Open(postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn}), gormConf)
	case "sqlite":
		if dir := filepath.Dir(dbConf.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("could not create database directory: %w", err)
			}
		}
		db, err := gorm.Open(sqlite.Open(dbConf.Path+"?_foreign_keys=on"), gormConf)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbConf.Driver)
	}
}

// Init opens the configured database, runs migrations and sets DB.
func Init(log *zap.Logger) error {
	db, err := Open(config.Conf.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully.", zap.String("driver", config.Conf.Database.Driver))

	if err := Migrate(db, log); err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate creates or updates the screening tables.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.ScreeningRecord{},
		&models.AlignmentResult{},
		&models.TrackingResult{},
		&models.ContrastResult{},
	)
	if err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	log.Info("Database migrations completed successfully.")
	return nil
}
