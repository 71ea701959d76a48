// Package storage provides the durable local key-value persistence that
// backs the in-memory stores. Each key holds one JSON snapshot blob and is
// independently loaded at startup.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Well-known snapshot keys
const (
	KeyUserProfile    = "tennis-cue-user"
	KeySessionHistory = "tennis-cue-sessions"
	KeyAuthSession    = "tennis-cue-auth"
)

// Store is a SQLite-backed key-value blob store
type Store struct {
	db *sql.DB
}

// Open creates and configures the local store at the given path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping local store: %w", err)
	}

	// Local store is single-process; keep the pool small
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to configure local store: %w", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS local_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create local_state table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the blob stored under key, or false if the key has never
// been written
func (s *Store) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put durably writes the blob under key, replacing any previous value
func (s *Store) Put(key string, value []byte) error {
	query := `
		INSERT INTO local_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, key, string(value)); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes the key; no-op if absent
func (s *Store) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM local_state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// KeyRepository is a single-key view of the store, satisfying the snapshot
// repository interface the state containers persist through
type KeyRepository struct {
	store *Store
	key   string
}

// ForKey returns a repository bound to one snapshot key
func (s *Store) ForKey(key string) *KeyRepository {
	return &KeyRepository{store: s, key: key}
}

// Load reads the current snapshot; ok is false on first use
func (r *KeyRepository) Load() ([]byte, bool, error) {
	return r.store.Get(r.key)
}

// Save durably replaces the snapshot
func (r *KeyRepository) Save(snapshot []byte) error {
	return r.store.Put(r.key, snapshot)
}

// Clear removes the snapshot entirely
func (r *KeyRepository) Clear() error {
	return r.store.Delete(r.key)
}
