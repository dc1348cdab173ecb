// SQLite-backed durable store on the pure Go driver (no cgo).

package state

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"
)

// kvEntry is the single table behind SQLiteStore.
type kvEntry struct {
	Key       string    `gorm:"primaryKey;type:varchar(128)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName returns the database table name for kvEntry.
func (kvEntry) TableName() string { return "kv_entries" }

// SQLiteStore is a DurableStore backed by a local SQLite file, used for the
// auth credential the way a CLI keeps its token cache.
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the state database, applies PRAGMAs, and
// migrates the key/value table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	// Fail early if the parent directory does not exist (instead of the
	// driver's opaque "out of memory (14)").
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&kvEntry{}); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the stored value or ErrKeyNotFound.
func (s *SQLiteStore) Get(key string) (string, error) {
	var e kvEntry
	err := s.db.Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

// Set upserts value under key.
func (s *SQLiteStore) Set(key, value string) error {
	e := kvEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.Save(&e).Error
}

// Delete removes key. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&kvEntry{}).Error
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
