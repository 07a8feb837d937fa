package store

import (
	"database/sql"
	"fmt"

	"github.com/sdejongh/duper/pkg/models"
)

// InsertMove records a completed relocation in the ledger.
// The UNIQUE constraint on original_path enforces at most one open
// ledger entry per path.
func (s *Store) InsertMove(rec *models.MoveRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO moved_files (id, original_path, destination_path, moved_at)
		VALUES (?, ?, ?, ?)`,
		rec.ID, rec.OriginalPath, rec.DestinationPath, encodeTime(rec.MovedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert move record: %w", err)
	}
	return nil
}

// DeleteMove removes a ledger entry after a successful restore
func (s *Store) DeleteMove(id string) error {
	if _, err := s.db.Exec(`DELETE FROM moved_files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete move record: %w", err)
	}
	return nil
}

// GetMove returns the ledger entry with the given id
func (s *Store) GetMove(id string) (*models.MoveRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, original_path, destination_path, moved_at
		FROM moved_files WHERE id = ?`, id)

	rec, err := scanMoveRecord(row)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "move record", Key: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read move record: %w", err)
	}
	return rec, nil
}

// ListMoves returns every ledger entry, oldest first
func (s *Store) ListMoves() ([]*models.MoveRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, original_path, destination_path, moved_at
		FROM moved_files ORDER BY moved_at, original_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list move records: %w", err)
	}
	defer rows.Close()

	var records []*models.MoveRecord
	for rows.Next() {
		rec, err := scanMoveRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read move record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list move records: %w", err)
	}

	return records, nil
}

// CountMoves returns the number of open ledger entries
func (s *Store) CountMoves() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM moved_files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count move records: %w", err)
	}
	return count, nil
}

func scanMoveRecord(row rowScanner) (*models.MoveRecord, error) {
	var rec models.MoveRecord
	var movedAt string

	if err := row.Scan(&rec.ID, &rec.OriginalPath, &rec.DestinationPath, &movedAt); err != nil {
		return nil, err
	}

	rec.MovedAt = decodeTime(movedAt)
	return &rec, nil
}
