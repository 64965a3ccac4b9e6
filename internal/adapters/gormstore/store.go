// Package gormstore implements the registry and storage ports on GORM,
// supporting sqlite, postgres, and mysql backends behind one DSN switch.
package gormstore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store implements ports.DeviceRegistry, ports.EventStore, ports.StatusStore,
// and ports.WarningStore over one database handle.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	return NewStore(db)
}

// NewStore wraps an existing GORM handle and migrates the schema. Used by
// tests to inject sqlite in-memory or mocked connections.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
