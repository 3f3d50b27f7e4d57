package player

import (
	"fmt"
	"image"
	"image/draw"
	"path/filepath"
	"sync"

	"camplayer/internal/config"

	xdraw "golang.org/x/image/draw"
)

// Controller wires the session to the presentation side: it owns the view
// state, pulls the latest frame from the buffer, applies the viewport
// transform, and keeps the last rendered image around for snapshots. It is
// safe for concurrent use by the control surface.
type Controller struct {
	session *StreamSession
	frames  *FrameBuffer
	writer  *SnapshotWriter

	mu           sync.Mutex
	conn         config.ConnectionConfig
	view         ViewState
	viewportW    int
	viewportH    int
	snapshotDir  string
	lastRendered *image.NRGBA
}

// NewController creates a controller over session and frames with the
// given viewport size.
func NewController(session *StreamSession, frames *FrameBuffer, conn config.ConnectionConfig, playerCfg config.PlayerConfig) *Controller {
	return &Controller{
		session:     session,
		frames:      frames,
		writer:      NewSnapshotWriter(),
		conn:        conn,
		view:        DefaultView(),
		viewportW:   playerCfg.ViewportWidth,
		viewportH:   playerCfg.ViewportHeight,
		snapshotDir: playerCfg.SnapshotDir,
	}
}

// Start resets the view state and starts the session with the current
// connection config.
func (c *Controller) Start() error {
	c.mu.Lock()
	c.view = DefaultView()
	conn := c.conn
	c.lastRendered = nil
	c.mu.Unlock()
	return c.session.Start(conn)
}

// Stop stops the session. Idempotent.
func (c *Controller) Stop() {
	c.session.Stop()
}

// TogglePause pauses a streaming session or resumes a paused one.
func (c *Controller) TogglePause() {
	switch c.session.State() {
	case StateStreaming:
		c.session.Pause(true)
	case StatePaused:
		c.session.Pause(false)
	}
}

// State returns the session state name.
func (c *Controller) State() string {
	return c.session.State().String()
}

// ZoomIn applies one zoom-in step to the view.
func (c *Controller) ZoomIn() {
	c.mu.Lock()
	c.view = c.view.ZoomIn()
	c.mu.Unlock()
}

// ZoomOut applies one zoom-out step to the view.
func (c *Controller) ZoomOut() {
	c.mu.Lock()
	c.view = c.view.ZoomOut()
	c.mu.Unlock()
}

// Pan moves the view by a pointer delta, clamped to the current frame.
func (c *Controller) Pan(dx, dy int) {
	f := c.frames.Latest()
	c.mu.Lock()
	defer c.mu.Unlock()
	if f == nil {
		return
	}
	c.view = c.view.Pan(dx, dy, f.Width, f.Height, c.viewportW, c.viewportH)
}

// ResetView restores zoom 1.0 and zero pan.
func (c *Controller) ResetView() {
	c.mu.Lock()
	c.view = DefaultView()
	c.mu.Unlock()
}

// View returns the current (possibly unclamped) view state.
func (c *Controller) View() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Render pulls the latest frame and applies the viewport transform: scale
// by the zoom factor, then crop the clamped visible rectangle. The result
// is retained as the snapshot source. Returns nil when no frame has been
// published yet.
func (c *Controller) Render() *image.NRGBA {
	f := c.frames.Latest()
	if f == nil {
		return nil
	}

	c.mu.Lock()
	view := c.view.Clamp(f.Width, f.Height, c.viewportW, c.viewportH)
	c.view = view
	vw, vh := c.viewportW, c.viewportH
	c.mu.Unlock()

	src := f.Image()
	sw, sh := ScaledSize(view.Zoom, f.Width, f.Height)
	scaled := src
	if sw != f.Width || sh != f.Height {
		scaled = image.NewNRGBA(image.Rect(0, 0, sw, sh))
		xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}

	rect := view.VisibleRect(f.Width, f.Height, vw, vh)
	out := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), scaled, rect.Min, draw.Src)

	c.mu.Lock()
	c.lastRendered = out
	c.mu.Unlock()
	return out
}

// Snapshot saves the last rendered image under the snapshot directory with
// baseName plus a timestamp. Rendering is not triggered here: the snapshot
// captures exactly what was last displayed, zoom and pan included, and the
// image was already copied out of the live buffer, so the producer is
// never blocked by disk I/O. Snapshot failures never touch session state.
func (c *Controller) Snapshot(baseName string) (string, error) {
	if baseName == "" {
		baseName = "snapshot.png"
	}

	c.mu.Lock()
	img := c.lastRendered
	dir := c.snapshotDir
	c.mu.Unlock()

	if img == nil {
		return "", ErrNoFrame
	}
	return c.writer.Save(img, filepath.Join(dir, baseName))
}

// UpdateSettings replaces the connection config wholesale. The running
// session keeps its old config; the new one applies on the next Start.
func (c *Controller) UpdateSettings(s config.Settings) {
	c.mu.Lock()
	c.conn = s.Connection()
	c.mu.Unlock()
}

// Settings returns the current connection config in its persisted form.
// The secret is included; callers exposing this externally must mask it.
func (c *Controller) Settings() config.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return config.SettingsFromConnection(c.conn)
}

// Stats returns a snapshot of player state for the status endpoint.
func (c *Controller) Stats() map[string]interface{} {
	published, dropped, reads := c.frames.Stats()
	nativeW, nativeH := c.session.NativeResolution()

	c.mu.Lock()
	view := c.view
	conn := c.conn
	c.mu.Unlock()

	return map[string]interface{}{
		"state":           c.session.State().String(),
		"uri":             conn.MaskedURI(),
		"resolution":      config.PresetLabel(conn.Width, conn.Height),
		"nativeSize":      fmt.Sprintf("%dx%d", nativeW, nativeH),
		"resizeNeeded":    c.session.ResizeNeeded(),
		"zoom":            view.Zoom,
		"panX":            view.PanX,
		"panY":            view.PanY,
		"framesPublished": published,
		"framesDropped":   dropped,
		"framesRead":      reads,
	}
}
