package fingerprint

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/duper/pkg/ratelimit"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// TestFileKnownHash verifies the streamed MD5 against a known digest
func TestFileKnownHash(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.bin", []byte("hello world"))

	fp, err := New(4096).File(context.Background(), path)
	if err != nil {
		t.Fatalf("File failed: %v", err)
	}

	// md5("hello world")
	want := "5eb63bbbe01eeed093cb22bb8f5acdc3"
	if fp.ContentHash != want {
		t.Errorf("ContentHash = %s, want %s", fp.ContentHash, want)
	}
	if fp.SizeBytes != 11 {
		t.Errorf("SizeBytes = %d, want 11", fp.SizeBytes)
	}
	if fp.Sentinel() {
		t.Error("readable file must not produce the sentinel")
	}
}

// TestFileLargerThanBuffer verifies chunked hashing matches one-shot hashing
func TestFileLargerThanBuffer(t *testing.T) {
	content := make([]byte, 5*4096+123)
	for i := range content {
		content[i] = byte(i % 251)
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "big.bin", content)

	small, err := New(4096).File(context.Background(), path)
	if err != nil {
		t.Fatalf("File with small buffer failed: %v", err)
	}
	large, err := New(1<<20).File(context.Background(), path)
	if err != nil {
		t.Fatalf("File with large buffer failed: %v", err)
	}

	if small.ContentHash != large.ContentHash {
		t.Errorf("chunk size changed the hash: %s vs %s", small.ContentHash, large.ContentHash)
	}
}

// TestMissingFileSentinel verifies the sentinel on unreadable files
func TestMissingFileSentinel(t *testing.T) {
	fp, err := New(4096).File(context.Background(), filepath.Join(t.TempDir(), "gone.bin"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !fp.Sentinel() {
		t.Error("missing file must produce the sentinel fingerprint")
	}
	if fp.SizeBytes != 0 {
		t.Errorf("sentinel SizeBytes = %d, want 0", fp.SizeBytes)
	}
}

// TestRecordAttributes verifies the name-derived record fields
func TestRecordAttributes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Super Game (USA).n64", []byte("rom"))

	rec, err := New(4096).Record(context.Background(), path)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if rec.Path != path {
		t.Errorf("Path = %s, want %s", rec.Path, path)
	}
	if rec.Filename != "Super Game (USA).n64" {
		t.Errorf("Filename = %s", rec.Filename)
	}
	if rec.SimplifiedName != "Super Game (USA)" {
		t.Errorf("SimplifiedName = %s", rec.SimplifiedName)
	}
	if rec.Extension != "n64" {
		t.Errorf("Extension = %s, want n64", rec.Extension)
	}
	if !rec.HasHash() {
		t.Error("record should carry a hash")
	}
}

// TestRecordForMissingFile verifies a sentinel record is still returned
func TestRecordForMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.bin")

	rec, err := New(4096).Record(context.Background(), path)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if rec == nil {
		t.Fatal("sentinel record must still be returned")
	}
	if rec.HasHash() {
		t.Error("sentinel record must not carry a hash")
	}
	if rec.Filename != "gone.bin" {
		t.Errorf("Filename = %s, want gone.bin", rec.Filename)
	}
}

// TestReaderWrapper verifies the wrapper is applied during hashing
func TestReaderWrapper(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wrapped.bin", []byte("wrapped content"))

	ctx := context.Background()
	fp := New(4096)
	limiter := ratelimit.NewLimiter(10 * 1024 * 1024)
	fp.SetReaderWrapper(func(rc io.ReadCloser) io.ReadCloser {
		return ratelimit.NewReadCloser(ctx, rc, limiter)
	})

	plain, err := New(4096).File(ctx, path)
	if err != nil {
		t.Fatalf("unwrapped File failed: %v", err)
	}
	limited, err := fp.File(ctx, path)
	if err != nil {
		t.Fatalf("wrapped File failed: %v", err)
	}

	if plain.ContentHash != limited.ContentHash {
		t.Errorf("wrapping changed the hash: %s vs %s", plain.ContentHash, limited.ContentHash)
	}
}

// TestContextCancellation verifies hashing respects cancellation
func TestContextCancellation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cancel.bin", []byte("data"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(4096).File(ctx, path); err == nil {
		t.Error("expected error from cancelled context")
	}
}
