// Package rotorstore persists rotor definitions and presets in SQLite.
package rotorstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

var (
	// ErrNotFound is returned when no rotor or preset matches.
	ErrNotFound = errors.New("not found")
	// ErrNameTaken is returned when saving a rotor under another rotor's name.
	ErrNameTaken = errors.New("name already in use")
	// ErrAmbiguous is returned when an id prefix matches several rotors.
	ErrAmbiguous = errors.New("ambiguous rotor reference")
	// ErrInUse is returned when deleting a rotor that a preset still selects.
	ErrInUse = errors.New("rotor is used by a preset")
)

// Store handles persistent storage of rotors and presets.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// now is swapped by tests that need stable timestamps.
var now = func() time.Time { return time.Now().UTC() }

// Open opens or creates the store at path. The parent directory is created
// when missing.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and serialises
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Debug("rotor store opened", "path", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rotors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		permutation TEXT NOT NULL, -- JSON array of 64 integers
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,

		CONSTRAINT rotor_name_unique UNIQUE(name)
	);

	CREATE TABLE IF NOT EXISTS presets (
		name TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		rotor_ids TEXT NOT NULL, -- JSON array
		positions TEXT NOT NULL, -- JSON array
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rotors_updated ON rotors(updated_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
