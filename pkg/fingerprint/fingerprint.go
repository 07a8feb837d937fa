// Package fingerprint computes per-file content hashes and metadata.
// A fingerprint is the dedup unit of comparison: hex MD5 of the
// content plus size and timestamps. MD5 is deliberate — duplicate
// detection needs collision resistance against accidents, not
// adversaries, and it keeps large library scans cheap.
package fingerprint

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sdejongh/duper/pkg/models"
)

// Fingerprint holds the content hash and metadata of one file.
// An empty ContentHash is the unreadable-file sentinel.
type Fingerprint struct {
	ContentHash string
	SizeBytes   int64
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// Sentinel reports whether the fingerprint is the unreadable sentinel
func (f Fingerprint) Sentinel() bool {
	return f.ContentHash == ""
}

// ReaderWrapper wraps the file reader before hashing,
// e.g. for bandwidth limiting
type ReaderWrapper func(io.ReadCloser) io.ReadCloser

// Fingerprinter computes fingerprints with a fixed chunk size so
// memory stays bounded regardless of file size
type Fingerprinter struct {
	bufferSize    int
	readerWrapper ReaderWrapper
}

// New creates a fingerprinter with the given chunk size (floor 4096)
func New(bufferSize int) *Fingerprinter {
	if bufferSize < 4096 {
		bufferSize = 4096
	}
	return &Fingerprinter{bufferSize: bufferSize}
}

// SetReaderWrapper sets a function to wrap file readers
func (f *Fingerprinter) SetReaderWrapper(wrapper ReaderWrapper) {
	f.readerWrapper = wrapper
}

// File computes the fingerprint for path. On any stat or read error
// it returns the sentinel fingerprint together with the error so the
// caller can log it and keep scanning; a bad file never stops a scan.
func (f *Fingerprinter) File(ctx context.Context, path string) (Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to stat file: %w", err)
	}

	hash, err := f.hash(ctx, path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("failed to hash file: %w", err)
	}

	return Fingerprint{
		ContentHash: hash,
		SizeBytes:   info.Size(),
		// Creation time is not portably available; the modification
		// time stands in for both, matching stat on most filesystems
		// this tool targets
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// Record builds a complete FileRecord for path, combining the
// fingerprint with the name-derived attributes. The record is
// returned even when fingerprinting fails, carrying the sentinel.
func (f *Fingerprinter) Record(ctx context.Context, path string) (*models.FileRecord, error) {
	fp, err := f.File(ctx, path)

	filename := filepath.Base(path)
	ext := filepath.Ext(filename)

	return &models.FileRecord{
		Path:           path,
		Filename:       filename,
		SimplifiedName: strings.TrimSuffix(filename, ext),
		Extension:      strings.TrimPrefix(ext, "."),
		ContentHash:    fp.ContentHash,
		SizeBytes:      fp.SizeBytes,
		CreatedAt:      fp.CreatedAt,
		ModifiedAt:     fp.ModifiedAt,
	}, err
}

// hash streams the file content through MD5 in fixed-size chunks
func (f *Fingerprinter) hash(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}

	var reader io.ReadCloser = file
	if f.readerWrapper != nil {
		reader = f.readerWrapper(reader)
	}
	defer reader.Close()

	hasher := md5.New()
	buffer := make([]byte, f.bufferSize)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
