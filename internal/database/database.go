// Package database opens the GORM connection and migrates the catalog schema.
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"catalog/internal/models"
	"catalog/internal/query"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteDriverName is the go-sqlite3 driver registered with the catalog connect hook.
const sqliteDriverName = "sqlite3_catalog"

var registerSQLite sync.Once

// registerSQLiteDriver registers a sqlite driver whose connections enforce foreign keys and
// provide query.UnicodeLowerFunc.
func registerSQLiteDriver() {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc(query.UnicodeLowerFunc, strings.ToLower, true); err != nil {
					return fmt.Errorf("failed to register %s: %w", query.UnicodeLowerFunc, err)
				}
				if _, err := conn.Exec("PRAGMA foreign_keys = ON", nil); err != nil {
					return fmt.Errorf("failed to enable foreign keys: %w", err)
				}
				return nil
			},
		})
	})
}

// Open connects to driver ("postgres" or "sqlite") at dsn. Constraint violations are
// translated to gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		registerSQLiteDriver()
		dialector = sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: dsn})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		// SQLite serializes writers, and each connection to :memory: is a separate database.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates the catalog tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}, &models.User{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}

// OpenTest returns a migrated, private in-memory sqlite database.
func OpenTest() (*gorm.DB, error) {
	db, err := Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
