package store

import (
	"database/sql"
	"fmt"
	"time"
)

// LastScan returns when directory was last scanned.
// The second return value is false when the directory has never been
// scanned, which tells the pipeline to run a full scan.
func (s *Store) LastScan(directory string) (time.Time, bool, error) {
	var lastScan string
	err := s.db.QueryRow(`SELECT last_scan_time FROM scan_history WHERE directory = ?`, directory).Scan(&lastScan)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read scan history: %w", err)
	}

	return decodeTime(lastScan), true, nil
}

// SetLastScan records that directory was scanned at t
func (s *Store) SetLastScan(directory string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO scan_history (directory, last_scan_time)
		VALUES (?, ?)`, directory, encodeTime(t))
	if err != nil {
		return fmt.Errorf("failed to update scan history: %w", err)
	}
	return nil
}
