package camera

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// TestPatternOpener produces a synthetic moving pattern instead of opening
// a network camera. Useful for development without a camera on hand, and
// for exercising the full pipeline in demos (SOURCE=test).
type TestPatternOpener struct {
	Width  int
	Height int
	FPS    int
}

// Open never fails and ignores the URI.
func (o TestPatternOpener) Open(uri string) (Source, error) {
	w, h, fps := o.Width, o.Height, o.FPS
	if w == 0 {
		w = 1280
	}
	if h == 0 {
		h = 720
	}
	if fps == 0 {
		fps = 15
	}

	return &testPatternSource{
		width:    w,
		height:   h,
		interval: time.Second / time.Duration(fps),
		face:     loadPatternFont(),
	}, nil
}

// loadPatternFont parses the embedded Go font once per source. Text is
// skipped entirely if parsing fails - the pattern is still usable.
func loadPatternFont() font.Face {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    28,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil
	}
	return face
}

type testPatternSource struct {
	width    int
	height   int
	interval time.Duration
	face     font.Face
	counter  uint64
	last     time.Time
}

// Read renders the next pattern frame, pacing itself to the configured
// frame rate the way a live source would.
func (s *testPatternSource) Read() (image.Image, error) {
	if !s.last.IsZero() {
		if wait := s.interval - time.Since(s.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	s.last = time.Now()
	s.counter++

	dc := gg.NewContext(s.width, s.height)

	// Dark background with a sparse grid, enough structure to make zoom
	// and pan visibly do something.
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, float64(s.width), float64(s.height))
	dc.Fill()

	dc.SetColor(color.RGBA{30, 30, 45, 255})
	dc.SetLineWidth(1)
	gridSize := 100.0
	for x := 0.0; x < float64(s.width); x += gridSize {
		dc.DrawLine(x, 0, x, float64(s.height))
		dc.Stroke()
	}
	for y := 0.0; y < float64(s.height); y += gridSize {
		dc.DrawLine(0, y, float64(s.width), y)
		dc.Stroke()
	}

	// Orbiting marker so motion is obvious at a glance.
	angle := float64(s.counter) * 0.05
	cx := float64(s.width)/2 + math.Cos(angle)*float64(s.width)/4
	cy := float64(s.height)/2 + math.Sin(angle)*float64(s.height)/4
	dc.SetColor(color.RGBA{83, 255, 69, 255})
	dc.DrawCircle(cx, cy, 24)
	dc.Fill()

	// Corner markers make the frame edges easy to find while panning.
	dc.SetColor(color.White)
	for _, p := range [][2]float64{{0, 0}, {float64(s.width), 0}, {0, float64(s.height)}, {float64(s.width), float64(s.height)}} {
		dc.DrawCircle(p[0], p[1], 14)
		dc.Fill()
	}

	if s.face != nil {
		dc.SetFontFace(s.face)
		dc.SetColor(color.White)
		dc.DrawStringAnchored(fmt.Sprintf("frame %d", s.counter), float64(s.width)/2, float64(s.height)/2, 0.5, 0.5)
	}

	return dc.Image(), nil
}

func (s *testPatternSource) Resolution() (int, int) {
	return s.width, s.height
}

func (s *testPatternSource) Close() error {
	return nil
}
