// Package store persists the dedup data model in SQLite: fingerprint
// records, the relocation ledger, scan history and settings. Every
// statement runs in autocommit mode, so an interrupted pipeline leaves
// the store consistent at per-row granularity.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	content_hash TEXT NOT NULL DEFAULT '',
	simplified_name TEXT NOT NULL,
	size_bytes INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL DEFAULT '',
	modified_at TEXT NOT NULL DEFAULT '',
	extension TEXT NOT NULL DEFAULT '',
	is_duplicate INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS moved_files (
	id TEXT PRIMARY KEY,
	original_path TEXT NOT NULL UNIQUE,
	destination_path TEXT NOT NULL,
	moved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_history (
	directory TEXT PRIMARY KEY,
	last_scan_time TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metrics (
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	scan_duration_seconds INTEGER NOT NULL,
	scan_duration_verbose TEXT NOT NULL,
	errors_encountered INTEGER NOT NULL,
	error_log TEXT NOT NULL,
	app_version TEXT NOT NULL,
	scan_directory TEXT NOT NULL,
	files_processed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS file_statistics (
	scan_id INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_time TEXT NOT NULL,
	total_files INTEGER NOT NULL,
	potential_duplicates INTEGER NOT NULL,
	duplicate_file_info TEXT NOT NULL,
	scan_directory TEXT NOT NULL
);
`

// Store is the SQLite-backed persistence layer.
// It assumes exactly one pipeline instance at a time.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the database at path,
// creating the parent directory and the schema
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// OpenMemory opens a private in-memory database, used by tests
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// rootPattern builds the LIKE pattern matching every path below root
func rootPattern(root string) string {
	return filepath.Clean(root) + string(filepath.Separator) + "%"
}

const timeLayout = time.RFC3339Nano

// encodeTime renders a timestamp for storage; zero becomes empty
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// decodeTime parses a stored timestamp; empty or malformed becomes zero
func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
