// Package scan enumerates candidate files under a target root and
// keeps the fingerprint store in step with the filesystem.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sdejongh/duper/pkg/config"
	"github.com/sdejongh/duper/pkg/fingerprint"
	"github.com/sdejongh/duper/pkg/logging"
	"github.com/sdejongh/duper/pkg/models"
	"github.com/sdejongh/duper/pkg/store"
)

// Progress receives scan progress updates, typically a progress bar
type Progress interface {
	Start(total int)
	Increment()
	Finish()
}

// Scanner walks a target root, fingerprints eligible files and
// upserts their records. On rescans it reconciles the store against
// the filesystem instead of re-hashing everything.
type Scanner struct {
	store    *store.Store
	fp       *fingerprint.Fingerprinter
	cfg      *config.Config
	logger   logging.Logger
	progress Progress
}

// New creates a scanner. The configuration is an explicit value;
// the scanner never consults ambient state.
func New(st *store.Store, fp *fingerprint.Fingerprinter, cfg *config.Config, logger logging.Logger) *Scanner {
	return &Scanner{
		store:  st,
		fp:     fp,
		cfg:    cfg,
		logger: logger,
	}
}

// SetProgress attaches a progress reporter
func (s *Scanner) SetProgress(p Progress) {
	s.progress = p
}

// Eligible returns the sorted list of files the scanner would
// process under root, after applying the directory-mode policy and
// the ignore-by-extension filters.
//
// Flat mode takes only direct children of the root. Hierarchical
// mode walks the whole tree but takes a directory's files only when
// the directory holds more than MinDirFiles direct files, or is the
// root itself with at least one file. The asymmetric threshold skips
// near-empty auxiliary folders.
func (s *Scanner) Eligible(ctx context.Context, root string) ([]string, error) {
	ignored := s.cfg.IgnoredExtensions()

	if s.cfg.Scan.Mode == models.ModeFlat {
		return s.eligibleFlat(root, ignored)
	}
	return s.eligibleHierarchical(ctx, root, ignored)
}

func (s *Scanner) eligibleFlat(root string, ignored map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !entry.Type().IsRegular() {
			continue
		}
		if isIgnored(entry.Name(), ignored) {
			continue
		}
		files = append(files, filepath.Join(root, entry.Name()))
	}

	sort.Strings(files)
	return files, nil
}

func (s *Scanner) eligibleHierarchical(ctx context.Context, root string, ignored map[string]bool) ([]string, error) {
	root = filepath.Clean(root)

	// Group candidate files by their containing directory, then apply
	// the recursion threshold per directory
	byDir := make(map[string][]string)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// An unreadable subtree never stops a scan
			s.logger.Warn(ctx, "skipping unreadable path", logging.Fields{"path": path, "error": err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if isIgnored(d.Name(), ignored) {
			return nil
		}

		dir := filepath.Dir(path)
		byDir[dir] = append(byDir[dir], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	var files []string
	for dir, members := range byDir {
		if dir == root {
			// The root itself only needs one file
			files = append(files, members...)
			continue
		}
		if len(members) > s.cfg.Scan.MinDirFiles {
			files = append(files, members...)
		}
	}

	sort.Strings(files)
	return files, nil
}

// isIgnored reports whether name carries an ignored extension
func isIgnored(name string, ignored map[string]bool) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return ignored[ext]
}

// FullScan fingerprints every eligible file under root.
// Used on the first scan of a root.
func (s *Scanner) FullScan(ctx context.Context, root string) (*models.ScanReport, error) {
	start := time.Now()

	files, err := s.Eligible(ctx, root)
	if err != nil {
		return nil, err
	}

	report := &models.ScanReport{
		Directory: root,
		FirstScan: true,
		StartTime: start,
	}

	if s.progress != nil {
		s.progress.Start(len(files))
	}

	var errLines []string
	for _, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		s.processFile(ctx, path, report, &errLines)

		if s.progress != nil {
			s.progress.Increment()
		}
	}

	if s.progress != nil {
		s.progress.Finish()
	}

	s.finishReport(report, errLines)
	return report, nil
}

// Rescan reconciles the store against the current filesystem state:
// additions are fingerprinted, records for vanished files are
// deleted. Unchanged paths are never re-hashed, so a file whose
// content changed in place is not detected as updated.
func (s *Scanner) Rescan(ctx context.Context, root string) (*models.ScanReport, error) {
	start := time.Now()

	files, err := s.Eligible(ctx, root)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.ListPaths(root)
	if err != nil {
		return nil, err
	}

	onDisk := make(map[string]bool, len(files))
	var toAdd []string
	for _, path := range files {
		onDisk[path] = true
		if !stored[path] {
			toAdd = append(toAdd, path)
		}
	}

	var toRemove []string
	for path := range stored {
		if !onDisk[path] {
			toRemove = append(toRemove, path)
		}
	}
	sort.Strings(toRemove)

	report := &models.ScanReport{
		Directory: root,
		StartTime: start,
	}

	if s.progress != nil {
		s.progress.Start(len(toAdd) + len(toRemove))
	}

	var errLines []string
	for _, path := range toAdd {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		s.processFile(ctx, path, report, &errLines)

		if s.progress != nil {
			s.progress.Increment()
		}
	}

	for _, path := range toRemove {
		if err := s.store.DeleteFile(path); err != nil {
			report.Errors++
			errLines = append(errLines, errorLine(path, err))
			s.logger.Error(ctx, "failed to drop stale record", err, logging.Fields{"path": path})
		} else {
			report.Removed++
		}

		if s.progress != nil {
			s.progress.Increment()
		}
	}

	if s.progress != nil {
		s.progress.Finish()
	}

	s.finishReport(report, errLines)
	return report, nil
}

// processFile fingerprints one file and upserts its record.
// Fingerprint failures still produce a sentinel record; only the
// error counter and log ever notice them.
func (s *Scanner) processFile(ctx context.Context, path string, report *models.ScanReport, errLines *[]string) {
	rec, fpErr := s.fp.Record(ctx, path)
	if fpErr != nil {
		report.Errors++
		*errLines = append(*errLines, errorLine(path, fpErr))
		s.logger.Warn(ctx, "fingerprint failed, storing sentinel", logging.Fields{"path": path, "error": fpErr.Error()})
	}

	if err := s.store.UpsertFile(rec); err != nil {
		report.Errors++
		*errLines = append(*errLines, errorLine(path, err))
		s.logger.Error(ctx, "failed to store record", err, logging.Fields{"path": path})
		return
	}

	report.Processed++
}

func (s *Scanner) finishReport(report *models.ScanReport, errLines []string) {
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.ErrorLog = strings.Join(errLines, "\n")
	report.Status = models.StatusFor(report.Errors)
}

func errorLine(path string, err error) string {
	return fmt.Sprintf("%s - error processing file '%s': %v", time.Now().Format("2006-01-02 15:04:05"), path, err)
}
