// Package player implements the stream acquisition and presentation
// pipeline: the session state machine with its producer loop, the
// single-slot frame hand-off buffer, the zoom/pan viewport transform, and
// the snapshot writer.
package player

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Frame is one decoded camera image. Frames are immutable after
// publication: the producer allocates a fresh pixel buffer per capture and
// never writes to it once it reaches the FrameBuffer, so readers need no
// per-pixel locking.
type Frame struct {
	Pix    []byte // NRGBA, 4 bytes per pixel, row-major
	Width  int
	Height int
	Seq    uint64 // capture sequence number, 1-based
}

// Image wraps the pixel buffer as an *image.NRGBA without copying.
// Callers must treat the result as read-only.
func (f *Frame) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// frameFromImage converts a decoded source image into a Frame of the given
// size, rescaling when the source dimensions differ.
func frameFromImage(img image.Image, width, height int, seq uint64) *Frame {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	}
	return &Frame{
		Pix:    dst.Pix,
		Width:  width,
		Height: height,
		Seq:    seq,
	}
}
