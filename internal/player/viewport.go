package player

import (
	"image"
	"math"
)

const (
	// MinZoom and MaxZoom bound the zoom factor.
	MinZoom = 0.1
	MaxZoom = 10.0
	// ZoomStep is the multiplicative step applied per discrete zoom event
	// (one wheel notch).
	ZoomStep = 1.1
)

// ViewState is the zoom/pan state applied to every displayed frame and
// every snapshot. It is a plain value: all methods return the adjusted
// state, which keeps the transform deterministic and trivially testable.
type ViewState struct {
	Zoom float64
	PanX int
	PanY int
}

// DefaultView is the state every new session starts from.
func DefaultView() ViewState {
	return ViewState{Zoom: 1.0}
}

func clampZoom(z float64) float64 {
	return math.Min(math.Max(z, MinZoom), MaxZoom)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// ZoomIn applies one zoom-in step.
func (v ViewState) ZoomIn() ViewState {
	v.Zoom = clampZoom(v.Zoom * ZoomStep)
	return v
}

// ZoomOut applies one zoom-out step.
func (v ViewState) ZoomOut() ViewState {
	v.Zoom = clampZoom(v.Zoom / ZoomStep)
	return v
}

// ScaledSize returns the frame dimensions after uniform zoom scaling.
func ScaledSize(zoom float64, width, height int) (int, int) {
	return int(math.Round(zoom * float64(width))), int(math.Round(zoom * float64(height)))
}

// Clamp bounds the pan offsets so the visible window never leaves the
// scaled frame: 0 <= pan <= max(0, scaled-viewport) on each axis.
func (v ViewState) Clamp(frameW, frameH, viewportW, viewportH int) ViewState {
	sw, sh := ScaledSize(v.Zoom, frameW, frameH)
	v.PanX = clampInt(v.PanX, 0, max(0, sw-viewportW))
	v.PanY = clampInt(v.PanY, 0, max(0, sh-viewportH))
	return v
}

// Pan moves the view opposite to the pointer delta (dragging the image)
// and re-clamps.
func (v ViewState) Pan(dx, dy, frameW, frameH, viewportW, viewportH int) ViewState {
	v.PanX -= dx
	v.PanY -= dy
	return v.Clamp(frameW, frameH, viewportW, viewportH)
}

// VisibleRect returns the sub-rectangle of the scaled frame the viewport
// shows: [panX, panY, panX+vw, panY+vh] clipped to the scaled bounds, so
// the result is always fully contained in [0,scaledW] x [0,scaledH].
func (v ViewState) VisibleRect(frameW, frameH, viewportW, viewportH int) image.Rectangle {
	sw, sh := ScaledSize(v.Zoom, frameW, frameH)
	c := v.Clamp(frameW, frameH, viewportW, viewportH)
	r := image.Rect(c.PanX, c.PanY, c.PanX+viewportW, c.PanY+viewportH)
	return r.Intersect(image.Rect(0, 0, sw, sh))
}
