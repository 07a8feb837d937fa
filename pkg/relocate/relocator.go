// Package relocate moves non-keeper duplicates into quarantine and,
// through the ledger, back out again. Every move is recorded before
// the fingerprint record is dropped, so any relocation can be undone.
package relocate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sdejongh/duper/pkg/logging"
	"github.com/sdejongh/duper/pkg/models"
	"github.com/sdejongh/duper/pkg/store"
)

// Relocator moves files into the quarantine area
type Relocator struct {
	store      *store.Store
	logger     logging.Logger
	quarantine string
	mode       models.DirectoryMode
}

// NewRelocator creates a relocator targeting the given quarantine
// root. In hierarchical mode the candidate's subpath below the
// scanned root is mirrored under quarantine.
func NewRelocator(st *store.Store, logger logging.Logger, quarantine string, mode models.DirectoryMode) *Relocator {
	return &Relocator{
		store:      st,
		logger:     logger,
		quarantine: quarantine,
		mode:       mode,
	}
}

// Relocate moves every candidate into quarantine. A failed move
// leaves the file and its record untouched and the batch continues;
// per-candidate errors are aggregated into the result.
func (r *Relocator) Relocate(ctx context.Context, root string, candidates []*models.FileRecord) *models.RelocateResult {
	result := &models.RelocateResult{}
	var errLines []string

	for _, rec := range candidates {
		if err := r.relocateOne(ctx, root, rec); err != nil {
			result.Errors++
			errLines = append(errLines, fmt.Sprintf("failed to relocate '%s': %v", rec.Path, err))
			r.logger.Error(ctx, "relocation failed", err, logging.Fields{"path": rec.Path})
			continue
		}
		result.Moved++
	}

	result.ErrorLog = strings.Join(errLines, "\n")
	return result
}

func (r *Relocator) relocateOne(ctx context.Context, root string, rec *models.FileRecord) error {
	destDir := r.quarantine
	if r.mode == models.ModeHierarchical {
		rel, err := filepath.Rel(filepath.Clean(root), filepath.Dir(rec.Path))
		if err != nil {
			return fmt.Errorf("failed to compute relative path: %w", err)
		}
		if rel != "." {
			destDir = filepath.Join(r.quarantine, rel)
		}
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	dest, err := DestinationPath(destDir, rec.Filename)
	if err != nil {
		return err
	}

	if err := moveFile(rec.Path, dest); err != nil {
		return err
	}

	move := &models.MoveRecord{
		ID:              uuid.New().String(),
		OriginalPath:    rec.Path,
		DestinationPath: dest,
		MovedAt:         time.Now(),
	}
	if err := r.store.InsertMove(move); err != nil {
		// Without a ledger entry the move would be irreversible;
		// put the file back and fail the candidate
		if undoErr := moveFile(dest, rec.Path); undoErr != nil {
			r.logger.Error(ctx, "failed to undo unrecorded move", undoErr, logging.Fields{
				"original":    rec.Path,
				"destination": dest,
			})
		}
		return fmt.Errorf("failed to record move: %w", err)
	}

	if err := r.store.DeleteFile(rec.Path); err != nil {
		// The move itself succeeded and is recorded; the stale
		// fingerprint record is dropped on the next rescan
		r.logger.Warn(ctx, "failed to drop record for moved file", logging.Fields{
			"path":  rec.Path,
			"error": err.Error(),
		})
	}

	r.logger.Info(ctx, "relocated duplicate", logging.Fields{
		"original":    rec.Path,
		"destination": dest,
	})

	return nil
}

// DestinationPath returns a collision-free path for filename inside
// dir, inserting a numeric suffix before the extension until the
// name is unused: name.ext, name_1.ext, name_2.ext, ...
func DestinationPath(dir, filename string) (string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	candidate := filepath.Join(dir, filename)
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to probe destination: %w", err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
	}
}

// moveFile renames src to dest, falling back to copy-and-delete when
// the rename crosses filesystems
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to finalize destination: %w", err)
	}

	os.Chtimes(dest, info.ModTime(), info.ModTime())

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove source after copy: %w", err)
	}

	return nil
}
