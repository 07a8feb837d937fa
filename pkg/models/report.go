package models

import (
	"time"
)

// Status represents the overall result of a pipeline stage
type Status string

const (
	// StatusSuccess indicates all items were processed
	StatusSuccess Status = "success"
	// StatusPartial indicates some items failed
	StatusPartial Status = "partial"
	// StatusFailed indicates the stage could not run at all
	StatusFailed Status = "failed"
)

// ExitCode returns the process exit code for a status
func (s Status) ExitCode() int {
	switch s {
	case StatusSuccess:
		return 0
	case StatusPartial:
		return 1
	case StatusFailed:
		return 2
	default:
		return 2
	}
}

// StatusFor derives a stage status from its error count
func StatusFor(errors int) Status {
	if errors > 0 {
		return StatusPartial
	}
	return StatusSuccess
}

// ScanReport is the result of one scan of a target root
type ScanReport struct {
	Directory string

	// FirstScan is true when the root had no scan history
	FirstScan bool

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Processed is the number of files fingerprinted
	Processed int

	// Removed is the number of stale records dropped on a rescan
	Removed int

	// Errors is the per-file error count; ErrorLog holds one line
	// per error, newline-joined
	Errors   int
	ErrorLog string

	Status Status
}

// ResolveReport is the result of a classification + resolution +
// relocation pass over a target root
type ResolveReport struct {
	Directory string

	// TotalFiles under the root at classification time
	TotalFiles int

	// DuplicateCount is how many records were flagged
	DuplicateCount int

	// GroupCount is the number of content-hash groups resolved
	GroupCount int

	// MovedCount is how many non-keepers reached quarantine
	MovedCount int

	// MoveErrors counts failed relocations; the files stay in place
	MoveErrors int
	ErrorLog   string

	Status Status
}

// RelocateResult aggregates one relocation batch
type RelocateResult struct {
	Moved    int
	Errors   int
	ErrorLog string
}

// RestoreReport is the result of a restore-all run
type RestoreReport struct {
	Restored int
	Errors   int
	ErrorLog string
	Status   Status
}

// DirectoryStats holds the per-root display totals
type DirectoryStats struct {
	Directory      string
	FileCount      int
	TotalBytes     int64
	DuplicateCount int
	LastScanTime   time.Time
}

// ScanMetrics is the durable record of one scan run
type ScanMetrics struct {
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
	DurationVerbose string
	Errors          int
	ErrorLog        string
	Version         string
	Directory       string
	FilesProcessed  int
}

// DuplicateStatistics is the durable summary of one classification run
type DuplicateStatistics struct {
	ScanTime       time.Time
	Directory      string
	TotalFiles     int
	DuplicateCount int

	// GroupInfo is a JSON object mapping content hash to member paths
	GroupInfo string
}
