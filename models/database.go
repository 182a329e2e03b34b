package models

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to Postgres with a bounded connection pool.
// TranslateError is enabled so unique violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func OpenDatabase(dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// StartKeepAlive issues a no-op query once a minute so idle pool
// connections are not dropped by the server. The ticker runs for the
// lifetime of the process and needs no cancellation.
func StartKeepAlive(db *gorm.DB, log *zap.Logger) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		for range ticker.C {
			if err := db.Exec("SELECT 1").Error; err != nil {
				log.Warn("keep-alive ping failed", zap.Error(err))
			}
		}
	}()
}
