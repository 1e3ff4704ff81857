package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var db *gorm.DB

// Connect opens the SQLite database at path and keeps the handle for
// GetDB. Foreign key enforcement is switched on so the company,
// contact, and deal references hold at the storage layer too.
func Connect(path string) error {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	var err error
	db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open database %s: %w", path, err)
	}
	return nil
}

// GetDB returns the shared database handle
func GetDB() *gorm.DB {
	return db
}
