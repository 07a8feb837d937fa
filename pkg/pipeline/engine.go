// Package pipeline orchestrates the dedup stages: scan, classify,
// resolve, relocate and restore. Stages run strictly in sequence;
// the engine assumes it is the only writer against its store.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sdejongh/duper/pkg/config"
	"github.com/sdejongh/duper/pkg/dedupe"
	"github.com/sdejongh/duper/pkg/fingerprint"
	"github.com/sdejongh/duper/pkg/logging"
	"github.com/sdejongh/duper/pkg/models"
	"github.com/sdejongh/duper/pkg/ratelimit"
	"github.com/sdejongh/duper/pkg/relocate"
	"github.com/sdejongh/duper/pkg/scan"
	"github.com/sdejongh/duper/pkg/store"
)

// Engine wires the dedup components against one store
type Engine struct {
	store      *store.Store
	cfg        *config.Config
	logger     logging.Logger
	scanner    *scan.Scanner
	classifier *dedupe.Classifier
	quarantine string
	version    string
}

// New creates an engine. The quarantine directory must exist; the
// caller bootstraps it along with the store.
func New(st *store.Store, cfg *config.Config, quarantine, version string, logger logging.Logger) *Engine {
	fp := fingerprint.New(cfg.Performance.BufferSize)
	if limiter := ratelimit.NewLimiter(cfg.Performance.BandwidthLimit); limiter != nil {
		fp.SetReaderWrapper(func(rc io.ReadCloser) io.ReadCloser {
			return ratelimit.NewReadCloser(context.Background(), rc, limiter)
		})
	}

	return &Engine{
		store:      st,
		cfg:        cfg,
		logger:     logger,
		scanner:    scan.New(st, fp, cfg, logger),
		classifier: dedupe.NewClassifier(st, logger),
		quarantine: quarantine,
		version:    version,
	}
}

// SetScanProgress attaches a progress reporter to the scanner
func (e *Engine) SetScanProgress(p scan.Progress) {
	e.scanner.SetProgress(p)
}

// Scan runs a full scan on the first visit to root and an
// incremental reconciliation afterwards, then updates the scan
// history and appends a metrics row.
func (e *Engine) Scan(ctx context.Context, root string) (*models.ScanReport, error) {
	root, err := normalizeRoot(root)
	if err != nil {
		return nil, err
	}

	_, scannedBefore, err := e.store.LastScan(root)
	if err != nil {
		return nil, err
	}

	var report *models.ScanReport
	if scannedBefore {
		report, err = e.scanner.Rescan(ctx, root)
	} else {
		report, err = e.scanner.FullScan(ctx, root)
	}
	if err != nil {
		return nil, err
	}

	if err := e.store.SetLastScan(root, report.EndTime); err != nil {
		return nil, err
	}

	metrics := &models.ScanMetrics{
		StartTime:       report.StartTime,
		EndTime:         report.EndTime,
		DurationSeconds: int(report.Duration.Seconds()),
		DurationVerbose: verboseDuration(report.Duration),
		Errors:          report.Errors,
		ErrorLog:        report.ErrorLog,
		Version:         e.version,
		Directory:       root,
		FilesProcessed:  report.Processed,
	}
	if err := e.store.InsertMetrics(metrics); err != nil {
		// Metrics are bookkeeping, not pipeline state
		e.logger.Warn(ctx, "failed to record scan metrics", logging.Fields{"error": err.Error()})
	}

	return report, nil
}

// ClassifyAndResolve recomputes the duplicate flags under root,
// resolves every content-hash group to a single keeper and relocates
// the rest into quarantine.
func (e *Engine) ClassifyAndResolve(ctx context.Context, root string) (*models.ResolveReport, error) {
	root, err := normalizeRoot(root)
	if err != nil {
		return nil, err
	}

	flagged, total, err := e.classifier.Classify(ctx, root)
	if err != nil {
		return nil, err
	}

	// Reload so the group pass sees the fresh flags
	records, err := e.store.ListFiles(root)
	if err != nil {
		return nil, err
	}

	groups := dedupe.Groups(records)

	if err := e.recordStatistics(root, total, flagged, groups); err != nil {
		e.logger.Warn(ctx, "failed to record duplicate statistics", logging.Fields{"error": err.Error()})
	}

	var candidates []*models.FileRecord
	for _, g := range groups {
		resolution := dedupe.Resolve(g)
		e.logger.Debug(ctx, "resolved duplicate group", logging.Fields{
			"hash":    g.Hash,
			"keeper":  resolution.Keeper.Path,
			"members": len(g.Members),
		})
		candidates = append(candidates, resolution.Relocate...)
	}

	relocator := relocate.NewRelocator(e.store, e.logger, e.quarantine, e.cfg.Scan.Mode)
	result := relocator.Relocate(ctx, root, candidates)

	return &models.ResolveReport{
		Directory:      root,
		TotalFiles:     total,
		DuplicateCount: flagged,
		GroupCount:     len(groups),
		MovedCount:     result.Moved,
		MoveErrors:     result.Errors,
		ErrorLog:       result.ErrorLog,
		Status:         models.StatusFor(result.Errors),
	}, nil
}

// RestoreOne reverses a single ledger entry
func (e *Engine) RestoreOne(ctx context.Context, id string) error {
	return relocate.NewRestorer(e.store, e.logger).RestoreOne(ctx, id)
}

// RestoreAll reverses every ledger entry
func (e *Engine) RestoreAll(ctx context.Context) (*models.RestoreReport, error) {
	return relocate.NewRestorer(e.store, e.logger).RestoreAll(ctx)
}

// Moves lists the open ledger entries for display
func (e *Engine) Moves() ([]*models.MoveRecord, error) {
	return e.store.ListMoves()
}

// Stats collects the per-root display totals
func (e *Engine) Stats(root string) (*models.DirectoryStats, error) {
	root, err := normalizeRoot(root)
	if err != nil {
		return nil, err
	}

	count, err := e.store.CountFiles(root)
	if err != nil {
		return nil, err
	}
	total, err := e.store.TotalSize(root)
	if err != nil {
		return nil, err
	}
	duplicates, err := e.store.CountDuplicates(root)
	if err != nil {
		return nil, err
	}
	lastScan, _, err := e.store.LastScan(root)
	if err != nil {
		return nil, err
	}

	return &models.DirectoryStats{
		Directory:      root,
		FileCount:      count,
		TotalBytes:     total,
		DuplicateCount: duplicates,
		LastScanTime:   lastScan,
	}, nil
}

// MirrorSettings writes the effective configuration into the
// settings table for the display layer
func (e *Engine) MirrorSettings() error {
	settings := map[string]string{
		"scan.mode":            string(e.cfg.Scan.Mode),
		"scan.min_dir_files":   strconv.Itoa(e.cfg.Scan.MinDirFiles),
		"ignore.archives":      strconv.FormatBool(e.cfg.Ignore.Archives),
		"ignore.images":        strconv.FormatBool(e.cfg.Ignore.Images),
		"ignore.documents":     strconv.FormatBool(e.cfg.Ignore.Documents),
		"ignore.saves":         strconv.FormatBool(e.cfg.Ignore.Saves),
		"quarantine.directory": e.quarantine,
	}

	for key, value := range settings {
		if err := e.store.SetSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}

// recordStatistics appends the duplicate summary row, including the
// hash-to-paths map as JSON
func (e *Engine) recordStatistics(root string, total, flagged int, groups []dedupe.Group) error {
	info := make(map[string][]string, len(groups))
	for _, g := range groups {
		paths := make([]string, 0, len(g.Members))
		for _, m := range g.Members {
			paths = append(paths, m.Path)
		}
		info[g.Hash] = paths
	}

	blob, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode group info: %w", err)
	}

	return e.store.InsertStatistics(&models.DuplicateStatistics{
		ScanTime:       time.Now(),
		Directory:      root,
		TotalFiles:     total,
		DuplicateCount: flagged,
		GroupInfo:      string(blob),
	})
}

// normalizeRoot resolves root to an absolute clean path so store
// scoping and history lookups are stable across invocations
func normalizeRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root: %w", err)
	}
	return filepath.Clean(abs), nil
}

// verboseDuration renders a duration the way the metrics table
// stores it
func verboseDuration(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%d hours %d minutes %d seconds", total/3600, (total%3600)/60, total%60)
}
