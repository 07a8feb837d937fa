package models

import (
	"time"
)

// DirectoryMode controls how the scanner traverses the target root
type DirectoryMode string

const (
	// ModeFlat scans only the direct children of the root
	ModeFlat DirectoryMode = "flat"
	// ModeHierarchical walks the whole tree, skipping near-empty subdirectories
	ModeHierarchical DirectoryMode = "hierarchical"
)

// FileRecord is the fingerprint of one file under a scanned root.
// It is created or overwritten by the scanner, and its IsDuplicate
// flag is owned by the classifier, which recomputes it from scratch
// on every pass.
type FileRecord struct {
	// Path is the absolute file path and the primary key
	Path string

	// Filename is the base name including extension
	Filename string

	// SimplifiedName is the base name without extension
	SimplifiedName string

	// Extension is the file extension without the leading dot
	Extension string

	// ContentHash is the hex MD5 of the file content.
	// Empty means the file could not be read; the empty hash is a
	// sentinel and never matches another record.
	ContentHash string

	// SizeBytes at fingerprint time
	SizeBytes int64

	// CreatedAt and ModifiedAt at fingerprint time
	CreatedAt  time.Time
	ModifiedAt time.Time

	// IsDuplicate marks the record as a potential duplicate
	IsDuplicate bool
}

// HasHash reports whether the record carries a usable content hash
func (r *FileRecord) HasHash() bool {
	return r.ContentHash != ""
}

// MoveRecord is one ledger entry: a file relocated into quarantine
// that can be moved back. A path appears in at most one open
// MoveRecord at a time.
type MoveRecord struct {
	// ID is a UUID string
	ID string

	// OriginalPath is where the file lived before relocation (unique)
	OriginalPath string

	// DestinationPath is where the file sits in quarantine
	DestinationPath string

	// MovedAt is when the relocation happened
	MovedAt time.Time
}

// ScanEntry is one row of scan history, used to distinguish a first
// scan (full walk) from subsequent scans (incremental reconciliation)
type ScanEntry struct {
	Directory    string
	LastScanTime time.Time
}
