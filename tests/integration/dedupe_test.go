package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/duper/pkg/config"
	"github.com/sdejongh/duper/pkg/logging"
	"github.com/sdejongh/duper/pkg/models"
	"github.com/sdejongh/duper/pkg/pipeline"
	"github.com/sdejongh/duper/pkg/store"
)

// TestHelper provides utilities for integration tests
type TestHelper struct {
	t          *testing.T
	tempDir    string
	rootDir    string
	quarantine string
	store      *store.Store
	cfg        *config.Config
	engine     *pipeline.Engine
}

// NewTestHelper creates a new integration test helper
func NewTestHelper(t *testing.T, mode models.DirectoryMode) *TestHelper {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "duper-integration-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}

	rootDir := filepath.Join(tempDir, "root")
	quarantine := filepath.Join(tempDir, "quarantine")

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		t.Fatalf("failed to create root dir: %v", err)
	}
	if err := os.MkdirAll(quarantine, 0755); err != nil {
		t.Fatalf("failed to create quarantine dir: %v", err)
	}

	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	cfg := config.Default()
	cfg.Scan.Mode = mode
	cfg.Scan.MinDirFiles = 0
	cfg.Ignore = config.IgnoreConfig{}
	cfg.Output.Progress = false

	engine := pipeline.New(st, cfg, quarantine, "test", logging.NewNullLogger())

	return &TestHelper{
		t:          t,
		tempDir:    tempDir,
		rootDir:    rootDir,
		quarantine: quarantine,
		store:      st,
		cfg:        cfg,
		engine:     engine,
	}
}

// Cleanup removes all temporary files
func (h *TestHelper) Cleanup() {
	h.store.Close()
	os.RemoveAll(h.tempDir)
}

// CreateFile creates a file under the scanned root
func (h *TestHelper) CreateFile(name string, content []byte) {
	h.t.Helper()
	path := filepath.Join(h.rootDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		h.t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		h.t.Fatalf("failed to create file: %v", err)
	}
}

// RootFileExists checks if a file exists under the scanned root
func (h *TestHelper) RootFileExists(name string) bool {
	_, err := os.Stat(filepath.Join(h.rootDir, name))
	return err == nil
}

// QuarantineFileExists checks if a file exists under quarantine
func (h *TestHelper) QuarantineFileExists(name string) bool {
	_, err := os.Stat(filepath.Join(h.quarantine, name))
	return err == nil
}

func TestDedupe_EmptyRoot(t *testing.T) {
	h := NewTestHelper(t, models.ModeFlat)
	defer h.Cleanup()

	report, err := h.engine.Scan(context.Background(), h.rootDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !report.FirstScan {
		t.Error("FirstScan = false, want true")
	}
	if report.Processed != 0 {
		t.Errorf("Processed = %d, want 0", report.Processed)
	}
	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", report.Status)
	}
}

func TestDedupe_ContentDuplicates(t *testing.T) {
	h := NewTestHelper(t, models.ModeFlat)
	defer h.Cleanup()

	h.CreateFile("rom.bin", []byte("AAAA"))
	h.CreateFile("rom_copy.bin", []byte("AAAA"))
	h.CreateFile("other.bin", []byte("BBBB"))

	scanReport, err := h.engine.Scan(context.Background(), h.rootDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if scanReport.Processed != 3 {
		t.Errorf("Processed = %d, want 3", scanReport.Processed)
	}

	report, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir)
	if err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}
	if report.DuplicateCount != 2 {
		t.Errorf("DuplicateCount = %d, want 2", report.DuplicateCount)
	}
	if report.GroupCount != 1 {
		t.Errorf("GroupCount = %d, want 1", report.GroupCount)
	}
	if report.MovedCount != 1 {
		t.Errorf("MovedCount = %d, want 1", report.MovedCount)
	}
	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", report.Status)
	}

	// rom.bin has the shorter name and wins; the copy is quarantined
	if !h.RootFileExists("rom.bin") {
		t.Error("keeper rom.bin should stay in place")
	}
	if h.RootFileExists("rom_copy.bin") {
		t.Error("rom_copy.bin should be quarantined")
	}
	if !h.QuarantineFileExists("rom_copy.bin") {
		t.Error("rom_copy.bin should exist in quarantine")
	}
	if !h.RootFileExists("other.bin") {
		t.Error("other.bin has unique content and should stay")
	}
}

func TestDedupe_FilenameOnlyDuplicatesStay(t *testing.T) {
	h := NewTestHelper(t, models.ModeHierarchical)
	defer h.Cleanup()

	// Same name, different content: flagged but never relocated
	h.CreateFile("rom.bin", []byte("AAAA"))
	h.CreateFile("sub/rom.bin", []byte("BBBB"))

	if _, err := h.engine.Scan(context.Background(), h.rootDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	report, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir)
	if err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}
	if report.DuplicateCount != 2 {
		t.Errorf("DuplicateCount = %d, want 2", report.DuplicateCount)
	}
	if report.GroupCount != 0 {
		t.Errorf("GroupCount = %d, want 0", report.GroupCount)
	}
	if report.MovedCount != 0 {
		t.Errorf("MovedCount = %d, want 0", report.MovedCount)
	}

	if !h.RootFileExists("rom.bin") || !h.RootFileExists("sub/rom.bin") {
		t.Error("filename-only duplicates should stay in place")
	}
}

func TestDedupe_HierarchicalQuarantineMirrorsLayout(t *testing.T) {
	h := NewTestHelper(t, models.ModeHierarchical)
	defer h.Cleanup()

	h.CreateFile("a.bin", []byte("AAAA"))
	h.CreateFile("n64/usa/copy.bin", []byte("AAAA"))

	if _, err := h.engine.Scan(context.Background(), h.rootDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	report, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir)
	if err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}
	if report.MovedCount != 1 {
		t.Fatalf("MovedCount = %d, want 1", report.MovedCount)
	}

	if !h.QuarantineFileExists(filepath.Join("n64", "usa", "copy.bin")) {
		t.Error("quarantine should mirror the subdirectory layout")
	}
}

func TestDedupe_RestoreRoundTrip(t *testing.T) {
	h := NewTestHelper(t, models.ModeFlat)
	defer h.Cleanup()

	h.CreateFile("rom.bin", []byte("AAAA"))
	h.CreateFile("rom_copy.bin", []byte("AAAA"))

	if _, err := h.engine.Scan(context.Background(), h.rootDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if _, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir); err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}

	moves, err := h.engine.Moves()
	if err != nil {
		t.Fatalf("Moves() error = %v", err)
	}
	if len(moves) != 1 {
		t.Fatalf("got %d moves, want 1", len(moves))
	}

	report, err := h.engine.RestoreAll(context.Background())
	if err != nil {
		t.Fatalf("RestoreAll() error = %v", err)
	}
	if report.Restored != 1 {
		t.Errorf("Restored = %d, want 1", report.Restored)
	}
	if report.Status != models.StatusSuccess {
		t.Errorf("Status = %s, want success", report.Status)
	}

	if !h.RootFileExists("rom_copy.bin") {
		t.Error("rom_copy.bin should be back at its original path")
	}

	moves, err = h.engine.Moves()
	if err != nil {
		t.Fatalf("Moves() error = %v", err)
	}
	if len(moves) != 0 {
		t.Errorf("got %d moves after restore, want 0", len(moves))
	}
}

func TestDedupe_RescanPicksUpRestoredFile(t *testing.T) {
	h := NewTestHelper(t, models.ModeFlat)
	defer h.Cleanup()

	h.CreateFile("rom.bin", []byte("AAAA"))
	h.CreateFile("rom_copy.bin", []byte("AAAA"))

	if _, err := h.engine.Scan(context.Background(), h.rootDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if _, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir); err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}
	if _, err := h.engine.RestoreAll(context.Background()); err != nil {
		t.Fatalf("RestoreAll() error = %v", err)
	}

	// Restore touches only the ledger and the filesystem; the
	// restored file re-enters the database on the next scan
	report, err := h.engine.Scan(context.Background(), h.rootDir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if report.FirstScan {
		t.Error("FirstScan = true, want false on second scan")
	}
	if report.Processed != 1 {
		t.Errorf("Processed = %d, want 1 (only the restored file)", report.Processed)
	}
	if report.Removed != 0 {
		t.Errorf("Removed = %d, want 0", report.Removed)
	}
}

func TestDedupe_SecondPassIsIdempotent(t *testing.T) {
	h := NewTestHelper(t, models.ModeFlat)
	defer h.Cleanup()

	h.CreateFile("rom.bin", []byte("AAAA"))
	h.CreateFile("rom_copy.bin", []byte("AAAA"))

	if _, err := h.engine.Scan(context.Background(), h.rootDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if _, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir); err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}

	// Rescan and dedupe again: the keeper is alone now
	if _, err := h.engine.Scan(context.Background(), h.rootDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	report, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir)
	if err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}
	if report.DuplicateCount != 0 {
		t.Errorf("DuplicateCount = %d, want 0", report.DuplicateCount)
	}
	if report.MovedCount != 0 {
		t.Errorf("MovedCount = %d, want 0", report.MovedCount)
	}
	if !h.RootFileExists("rom.bin") {
		t.Error("keeper must survive repeated passes")
	}
}

func TestDedupe_Stats(t *testing.T) {
	h := NewTestHelper(t, models.ModeFlat)
	defer h.Cleanup()

	h.CreateFile("rom.bin", []byte("AAAA"))
	h.CreateFile("rom_copy.bin", []byte("AAAA"))

	if _, err := h.engine.Scan(context.Background(), h.rootDir); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if _, err := h.engine.ClassifyAndResolve(context.Background(), h.rootDir); err != nil {
		t.Fatalf("ClassifyAndResolve() error = %v", err)
	}

	stats, err := h.engine.Stats(h.rootDir)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", stats.FileCount)
	}
	if stats.TotalBytes != 4 {
		t.Errorf("TotalBytes = %d, want 4", stats.TotalBytes)
	}
	if stats.LastScanTime.IsZero() {
		t.Error("LastScanTime should be set after a scan")
	}
}

func TestDedupe_ContextCancellation(t *testing.T) {
	h := NewTestHelper(t, models.ModeFlat)
	defer h.Cleanup()

	for _, name := range []string{"a.bin", "b.bin", "c.bin"} {
		h.CreateFile(name, []byte("content"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	if _, err := h.engine.Scan(ctx, h.rootDir); err == nil {
		t.Error("Scan() should return error on cancelled context")
	}
}
