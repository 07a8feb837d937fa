package store

import (
	"fmt"

	"github.com/sdejongh/duper/pkg/models"
)

// InsertMetrics appends the durable record of one scan run
func (s *Store) InsertMetrics(m *models.ScanMetrics) error {
	_, err := s.db.Exec(`
		INSERT INTO metrics
			(start_time, end_time, scan_duration_seconds, scan_duration_verbose,
			 errors_encountered, error_log, app_version, scan_directory, files_processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		encodeTime(m.StartTime), encodeTime(m.EndTime), m.DurationSeconds, m.DurationVerbose,
		m.Errors, m.ErrorLog, m.Version, m.Directory, m.FilesProcessed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan metrics: %w", err)
	}
	return nil
}

// InsertStatistics appends the durable summary of one classification run
func (s *Store) InsertStatistics(st *models.DuplicateStatistics) error {
	_, err := s.db.Exec(`
		INSERT INTO file_statistics
			(scan_time, total_files, potential_duplicates, duplicate_file_info, scan_directory)
		VALUES (?, ?, ?, ?, ?)`,
		encodeTime(st.ScanTime), st.TotalFiles, st.DuplicateCount, st.GroupInfo, st.Directory,
	)
	if err != nil {
		return fmt.Errorf("failed to insert duplicate statistics: %w", err)
	}
	return nil
}
