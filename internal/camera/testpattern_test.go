package camera

import (
	"testing"
	"time"
)

// TestPatternOpenDefaults tests the default pattern dimensions
func TestPatternOpenDefaults(t *testing.T) {
	src, err := TestPatternOpener{}.Open("ignored")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	w, h := src.Resolution()
	if w != 1280 || h != 720 {
		t.Errorf("Expected default 1280x720, got %dx%d", w, h)
	}
}

// TestPatternFrames tests that frames come out at the configured size
func TestPatternFrames(t *testing.T) {
	src, err := TestPatternOpener{Width: 320, Height: 240, FPS: 100}.Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	img, err := src.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("Expected 320x240 frame, got %dx%d", b.Dx(), b.Dy())
	}

	// The background is dark, not zero-valued black.
	r, g, bl, _ := img.At(50, 50).RGBA()
	if r == 0 && g == 0 && bl == 0 {
		t.Error("Expected drawn background, got pure black")
	}
}

// TestPatternPacing tests that reads are paced to the frame interval
func TestPatternPacing(t *testing.T) {
	src, err := TestPatternOpener{Width: 64, Height: 64, FPS: 50}.Open("")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if _, err := src.Read(); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := src.Read(); err != nil {
			t.Fatal(err)
		}
	}
	elapsed := time.Since(start)

	// Five frames at 50 fps should take at least ~80ms even on a fast box.
	if elapsed < 80*time.Millisecond {
		t.Errorf("Expected paced reads, five frames took %v", elapsed)
	}
}
