package store

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/sdejongh/duper/pkg/models"
)

// UpsertFile inserts or replaces the record for its path.
// The duplicate flag is reset: classification owns it and recomputes
// it from scratch on every pass.
func (s *Store) UpsertFile(rec *models.FileRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO files
			(path, filename, content_hash, simplified_name, size_bytes, created_at, modified_at, extension, is_duplicate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		rec.Path, rec.Filename, rec.ContentHash, rec.SimplifiedName, rec.SizeBytes,
		encodeTime(rec.CreatedAt), encodeTime(rec.ModifiedAt), rec.Extension,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file record: %w", err)
	}
	return nil
}

// DeleteFile removes the record for path
func (s *Store) DeleteFile(path string) error {
	if _, err := s.db.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}

// GetFile returns the record for path
func (s *Store) GetFile(path string) (*models.FileRecord, error) {
	row := s.db.QueryRow(`
		SELECT path, filename, content_hash, simplified_name, size_bytes, created_at, modified_at, extension, is_duplicate
		FROM files WHERE path = ?`, path)

	rec, err := scanFileRecord(row)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Kind: "file record", Key: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file record: %w", err)
	}
	return rec, nil
}

// ListFiles returns every record under root, ordered by path
func (s *Store) ListFiles(root string) ([]*models.FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT path, filename, content_hash, simplified_name, size_bytes, created_at, modified_at, extension, is_duplicate
		FROM files WHERE path LIKE ? ORDER BY path`, rootPattern(root))
	if err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}
	defer rows.Close()

	var records []*models.FileRecord
	for rows.Next() {
		rec, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to read file record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list file records: %w", err)
	}

	return records, nil
}

// ListPaths returns the set of stored paths under root
func (s *Store) ListPaths(root string) (map[string]bool, error) {
	rows, err := s.db.Query(`SELECT path FROM files WHERE path LIKE ?`, rootPattern(root))
	if err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to read path: %w", err)
		}
		paths[path] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list paths: %w", err)
	}

	return paths, nil
}

// SetDuplicateFlags resets every duplicate flag under root, then sets
// the flag on exactly the given paths
func (s *Store) SetDuplicateFlags(root string, flagged map[string]bool) error {
	if _, err := s.db.Exec(`UPDATE files SET is_duplicate = 0 WHERE path LIKE ?`, rootPattern(root)); err != nil {
		return fmt.Errorf("failed to reset duplicate flags: %w", err)
	}

	// Deterministic update order keeps failure behavior reproducible
	paths := make([]string, 0, len(flagged))
	for path := range flagged {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if _, err := s.db.Exec(`UPDATE files SET is_duplicate = 1 WHERE path = ?`, path); err != nil {
			return fmt.Errorf("failed to flag %s: %w", path, err)
		}
	}

	return nil
}

// CountFiles returns the number of records under root
func (s *Store) CountFiles(root string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE path LIKE ?`, rootPattern(root)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return count, nil
}

// CountDuplicates returns the number of flagged records under root
func (s *Store) CountDuplicates(root string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM files WHERE is_duplicate = 1 AND path LIKE ?`, rootPattern(root)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count duplicates: %w", err)
	}
	return count, nil
}

// TotalSize returns the byte total of records under root
func (s *Store) TotalSize(root string) (int64, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`SELECT SUM(size_bytes) FROM files WHERE path LIKE ?`, rootPattern(root)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum file sizes: %w", err)
	}
	return total.Int64, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFileRecord(row rowScanner) (*models.FileRecord, error) {
	var rec models.FileRecord
	var createdAt, modifiedAt string
	var isDuplicate int

	err := row.Scan(
		&rec.Path, &rec.Filename, &rec.ContentHash, &rec.SimplifiedName,
		&rec.SizeBytes, &createdAt, &modifiedAt, &rec.Extension, &isDuplicate,
	)
	if err != nil {
		return nil, err
	}

	rec.CreatedAt = decodeTime(createdAt)
	rec.ModifiedAt = decodeTime(modifiedAt)
	rec.IsDuplicate = isDuplicate != 0

	return &rec, nil
}
