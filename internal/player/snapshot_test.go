package player

import (
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClockWriter(ts time.Time) *SnapshotWriter {
	w := NewSnapshotWriter()
	w.now = func() time.Time { return ts }
	return w
}

// TestSnapshotNilImage tests the no-frame error
func TestSnapshotNilImage(t *testing.T) {
	w := NewSnapshotWriter()

	if _, err := w.Save(nil, "out.png"); err != ErrNoFrame {
		t.Errorf("Expected ErrNoFrame, got %v", err)
	}
}

// TestSnapshotEmptyImage tests rejecting a zero-sized image
func TestSnapshotEmptyImage(t *testing.T) {
	w := NewSnapshotWriter()

	if _, err := w.Save(image.NewNRGBA(image.Rectangle{}), "out.png"); err != ErrNoFrame {
		t.Errorf("Expected ErrNoFrame for empty image, got %v", err)
	}
}

// TestSnapshotTimestampFormat tests the filename timestamp layout
func TestSnapshotTimestampFormat(t *testing.T) {
	// 2026-08-30 14:07:09 renders as 08-30-2026_02-07-09PM.
	ts := time.Date(2026, 8, 30, 14, 7, 9, 0, time.UTC)
	w := fixedClockWriter(ts)
	dir := t.TempDir()

	path, err := w.Save(image.NewNRGBA(image.Rect(0, 0, 8, 8)), filepath.Join(dir, "cam.png"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	want := filepath.Join(dir, "cam_08-30-2026_02-07-09PM.png")
	if path != want {
		t.Errorf("Expected path %q, got %q", want, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file on disk: %v", err)
	}
}

// TestSnapshotMorningTimestamp tests the AM side of the 12-hour clock
func TestSnapshotMorningTimestamp(t *testing.T) {
	ts := time.Date(2026, 1, 2, 9, 5, 1, 0, time.UTC)
	w := fixedClockWriter(ts)
	dir := t.TempDir()

	path, err := w.Save(image.NewNRGBA(image.Rect(0, 0, 8, 8)), filepath.Join(dir, "cam.png"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	want := filepath.Join(dir, "cam_01-02-2026_09-05-01AM.png")
	if path != want {
		t.Errorf("Expected path %q, got %q", want, path)
	}
}

// TestSnapshotJPEGExtension tests that .jpg selects the JPEG encoder
func TestSnapshotJPEGExtension(t *testing.T) {
	w := fixedClockWriter(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	dir := t.TempDir()

	path, err := w.Save(image.NewNRGBA(image.Rect(0, 0, 8, 8)), filepath.Join(dir, "cam.jpg"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Ext(path) != ".jpg" {
		t.Errorf("Expected .jpg extension, got %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open saved file: %v", err)
	}
	defer f.Close()
	if _, err := jpeg.Decode(f); err != nil {
		t.Errorf("Expected a decodable JPEG: %v", err)
	}
}

// TestSnapshotDefaultExtension tests that a missing extension defaults to PNG
func TestSnapshotDefaultExtension(t *testing.T) {
	w := fixedClockWriter(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	dir := t.TempDir()

	path, err := w.Save(image.NewNRGBA(image.Rect(0, 0, 8, 8)), filepath.Join(dir, "cam"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Ext(path) != ".png" {
		t.Errorf("Expected .png default extension, got %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open saved file: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("Expected a decodable PNG: %v", err)
	}
}

// TestSnapshotCreatesDir tests that missing parent directories are created
func TestSnapshotCreatesDir(t *testing.T) {
	w := NewSnapshotWriter()
	dir := filepath.Join(t.TempDir(), "nested", "snaps")

	path, err := w.Save(image.NewNRGBA(image.Rect(0, 0, 8, 8)), filepath.Join(dir, "cam.png"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file in nested dir: %v", err)
	}
}
