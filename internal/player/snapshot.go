package player

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoFrame is returned when a snapshot is requested before any frame has
// been rendered.
var ErrNoFrame = errors.New("no frame available for snapshot")

// snapshotTimeFormat renders as MM-DD-YYYY_hh-mm-ssAM (12-hour clock).
const snapshotTimeFormat = "01-02-2006_03-04-05PM"

// SnapshotWriter serializes rendered images to disk under timestamped
// filenames. It operates on copies of already-rendered frames, so a slow
// disk never stalls the producer loop, and a failed write never disturbs
// the session.
type SnapshotWriter struct {
	now func() time.Time
}

// NewSnapshotWriter creates a snapshot writer using the wall clock.
func NewSnapshotWriter() *SnapshotWriter {
	return &SnapshotWriter{now: time.Now}
}

// Save writes img next to basePath with the capture timestamp appended to
// the base name: <base>_<MM-DD-YYYY_hh-mm-ssAM><ext>. The extension picks
// the encoder (.jpg/.jpeg for JPEG, PNG otherwise; missing extension
// defaults to .png). Returns the final path written.
func (w *SnapshotWriter) Save(img image.Image, basePath string) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", ErrNoFrame
	}

	ext := strings.ToLower(filepath.Ext(basePath))
	base := strings.TrimSuffix(basePath, filepath.Ext(basePath))
	if ext == "" {
		ext = ".png"
	}

	finalPath := fmt.Sprintf("%s_%s%s", base, w.now().Format(snapshotTimeFormat), ext)

	if dir := filepath.Dir(finalPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	f, err := os.Create(finalPath)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}

	switch ext {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		os.Remove(finalPath)
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return finalPath, nil
}
