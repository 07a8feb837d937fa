package store

import (
	"database/sql"
	"fmt"
)

// SetSetting stores one configuration key/value pair.
// The settings table mirrors the effective configuration for display;
// the pipeline itself reads the threaded Config value, never the table.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO settings (key, value)
		VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// GetSetting returns the stored value for key, or "" when absent
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}
