package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver
)

// ErrNotFound is returned by Get for absent keys
var ErrNotFound = errors.New("key not found")

// ErrQuotaExceeded is returned by Set when the value is over the configured
// size cap or the underlying database reports it is full. Callers can detect
// it with errors.Is to present a storage-specific message.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KVStore implements key-value persistence using SQLite
type KVStore struct {
	db           *sqlx.DB
	maxValueSize int // bytes, 0 disables the cap
}

// NewKVStore opens (or creates) the store at dbPath. maxValueSize limits the
// size of a single value in bytes, 0 for unlimited.
func NewKVStore(dbPath string, maxValueSize int) (*KVStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	res := &KVStore{db: db, maxValueSize: maxValueSize}
	if err := res.initialize(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return res, nil
}

// initialize creates the database schema
func (s *KVStore) initialize() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER
	)`)
	if err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

// Get retrieves the value for key, ErrNotFound if the key is absent
func (s *KVStore) Get(key string) (string, error) {
	var value string
	err := s.db.Get(&value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (s *KVStore) Set(key, value string) error {
	if s.maxValueSize > 0 && len(value) > s.maxValueSize {
		return fmt.Errorf("value for key %q is %d bytes, cap %d: %w", key, len(value), s.maxValueSize, ErrQuotaExceeded)
	}

	_, err := s.db.Exec(`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, key, value)
	if err != nil {
		if isFullError(err) {
			return fmt.Errorf("failed to set key %q: %v: %w", key, err, ErrQuotaExceeded)
		}
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *KVStore) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *KVStore) Close() error {
	return s.db.Close()
}

// isFullError detects SQLITE_FULL, reported by the driver as a plain
// error string
func isFullError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "database or disk is full")
}
