package api

import (
	"bytes"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"camplayer/internal/config"
)

// stubPlayer implements PlayerInterface for router tests.
type stubPlayer struct {
	state    string
	startErr error
	snapPath string
	snapErr  error
	settings config.Settings
	zoomIns  int
	zoomOuts int
	pans     [][2]int
	resets   int
	starts   int
	stops    int
	pauses   int
	frame    *image.NRGBA
}

func (p *stubPlayer) Start() error { p.starts++; return p.startErr }
func (p *stubPlayer) Stop()        { p.stops++ }
func (p *stubPlayer) TogglePause() { p.pauses++ }
func (p *stubPlayer) State() string {
	if p.state == "" {
		return "idle"
	}
	return p.state
}
func (p *stubPlayer) Render() *image.NRGBA { return p.frame }
func (p *stubPlayer) Snapshot(base string) (string, error) {
	if p.snapErr != nil {
		return "", p.snapErr
	}
	return p.snapPath, nil
}
func (p *stubPlayer) ZoomIn()                           { p.zoomIns++ }
func (p *stubPlayer) ZoomOut()                          { p.zoomOuts++ }
func (p *stubPlayer) Pan(dx, dy int)                    { p.pans = append(p.pans, [2]int{dx, dy}) }
func (p *stubPlayer) ResetView()                        { p.resets++ }
func (p *stubPlayer) Settings() config.Settings         { return p.settings }
func (p *stubPlayer) UpdateSettings(s config.Settings)  { p.settings = s }
func (p *stubPlayer) Stats() map[string]interface{} {
	return map[string]interface{}{"state": p.State()}
}

func testRouter(t *testing.T, p *stubPlayer) http.Handler {
	t.Helper()
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 10000, Burst: 10000, CleanupInterval: DefaultRateLimitConfig.CleanupInterval})
	t.Cleanup(rl.Stop)
	return NewRouter(RouterConfig{
		Player:         p,
		RateLimiter:    rl,
		DisableLogging: true,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// TestStatusEndpoint tests GET /api/status
func TestStatusEndpoint(t *testing.T) {
	p := &stubPlayer{state: "streaming"}
	h := testRouter(t, p)

	w := doJSON(t, h, "GET", "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["state"] != "streaming" {
		t.Errorf("Expected state 'streaming', got %v", body["state"])
	}
}

// TestStartEndpoint tests POST /api/start
func TestStartEndpoint(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	w := doJSON(t, h, "POST", "/api/start", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if p.starts != 1 {
		t.Errorf("Expected one start call, got %d", p.starts)
	}
}

// TestStartEndpointRejectsBadConfig tests the misconfigured-start error
func TestStartEndpointRejectsBadConfig(t *testing.T) {
	p := &stubPlayer{startErr: config.ErrNoHost}
	h := testRouter(t, p)

	w := doJSON(t, h, "POST", "/api/start", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not configured") {
		t.Errorf("Expected configuration error in body, got %q", w.Body.String())
	}
}

// TestStopAndPauseEndpoints tests the lifecycle controls
func TestStopAndPauseEndpoints(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	if w := doJSON(t, h, "POST", "/api/stop", ""); w.Code != http.StatusOK {
		t.Errorf("stop: expected 200, got %d", w.Code)
	}
	if w := doJSON(t, h, "POST", "/api/pause", ""); w.Code != http.StatusOK {
		t.Errorf("pause: expected 200, got %d", w.Code)
	}
	if p.stops != 1 || p.pauses != 1 {
		t.Errorf("Expected one stop and one pause, got %d and %d", p.stops, p.pauses)
	}
}

// TestSnapshotEndpoint tests POST /api/snapshot
func TestSnapshotEndpoint(t *testing.T) {
	p := &stubPlayer{snapPath: "snapshots/cam_08-30-2026_02-07-09PM.png"}
	h := testRouter(t, p)

	w := doJSON(t, h, "POST", "/api/snapshot", `{"base": "cam.png"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["path"] != p.snapPath {
		t.Errorf("Expected snapshot path in response, got %v", body)
	}
}

// TestSnapshotEndpointNoFrame tests the no-frame snapshot failure
func TestSnapshotEndpointNoFrame(t *testing.T) {
	p := &stubPlayer{snapErr: errNoFrameForTest{}}
	h := testRouter(t, p)

	w := doJSON(t, h, "POST", "/api/snapshot", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}
}

type errNoFrameForTest struct{}

func (errNoFrameForTest) Error() string { return "no frame available for snapshot" }

// TestZoomEndpoint tests POST /api/view/zoom
func TestZoomEndpoint(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	if w := doJSON(t, h, "POST", "/api/view/zoom", `{"direction": "in"}`); w.Code != http.StatusOK {
		t.Fatalf("zoom in: expected 200, got %d", w.Code)
	}
	if w := doJSON(t, h, "POST", "/api/view/zoom", `{"direction": "out"}`); w.Code != http.StatusOK {
		t.Fatalf("zoom out: expected 200, got %d", w.Code)
	}
	if p.zoomIns != 1 || p.zoomOuts != 1 {
		t.Errorf("Expected one zoom each way, got in=%d out=%d", p.zoomIns, p.zoomOuts)
	}
}

// TestZoomEndpointBadDirection tests rejection of unknown directions
func TestZoomEndpointBadDirection(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	w := doJSON(t, h, "POST", "/api/view/zoom", `{"direction": "sideways"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if p.zoomIns != 0 || p.zoomOuts != 0 {
		t.Error("Expected no zoom calls for a bad direction")
	}
}

// TestPanEndpoint tests POST /api/view/pan
func TestPanEndpoint(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	w := doJSON(t, h, "POST", "/api/view/pan", `{"dx": 15, "dy": -7}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(p.pans) != 1 || p.pans[0] != [2]int{15, -7} {
		t.Errorf("Expected pan (15, -7), got %v", p.pans)
	}
}

// TestResetViewEndpoint tests POST /api/view/reset
func TestResetViewEndpoint(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	w := doJSON(t, h, "POST", "/api/view/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if p.resets != 1 {
		t.Errorf("Expected one reset call, got %d", p.resets)
	}
}

// TestGetConfigMasksSecret tests that GET /api/config never returns the
// raw camera password
func TestGetConfigMasksSecret(t *testing.T) {
	p := &stubPlayer{settings: config.Settings{
		Protocol: "rtsp",
		User:     "admin",
		Secret:   "abc123",
		IP:       "192.168.1.10",
		Port:     554,
	}}
	h := testRouter(t, p)

	w := doJSON(t, h, "GET", "/api/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "abc123") {
		t.Errorf("Raw secret leaked in config response: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "******") {
		t.Errorf("Expected masked secret in response: %s", w.Body.String())
	}
}

// TestUpdateConfigEndpoint tests PUT /api/config
func TestUpdateConfigEndpoint(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	body := `{"protocol": "rtsp", "user": "viewer", "secret": "pw", "ip": "10.0.0.9", "port": 8554, "stream_path": "live", "video_resolution": "1280x720"}`
	w := doJSON(t, h, "PUT", "/api/config", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if p.settings.IP != "10.0.0.9" || p.settings.Port != 8554 {
		t.Errorf("Settings not applied: %+v", p.settings)
	}
	if strings.Contains(w.Body.String(), `"pw"`) {
		t.Errorf("Raw secret echoed in update response: %s", w.Body.String())
	}
}

// TestUpdateConfigDefaults tests that omitted fields get defaults
func TestUpdateConfigDefaults(t *testing.T) {
	p := &stubPlayer{}
	h := testRouter(t, p)

	w := doJSON(t, h, "PUT", "/api/config", `{"ip": "10.0.0.9"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if p.settings.Protocol != "rtsp" || p.settings.Port != 554 {
		t.Errorf("Expected protocol/port defaults, got %+v", p.settings)
	}
}

// TestHealthz tests the liveness endpoint
func TestHealthz(t *testing.T) {
	h := testRouter(t, &stubPlayer{})

	w := doJSON(t, h, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

// TestMetricsEndpoint tests that /metrics serves Prometheus text
func TestMetricsEndpoint(t *testing.T) {
	h := testRouter(t, &stubPlayer{})

	w := doJSON(t, h, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("Expected Go runtime metrics in /metrics output")
	}
}

// TestRateLimiterRejectsBurst tests that the limiter returns 429 once the
// burst is spent
func TestRateLimiterRejectsBurst(t *testing.T) {
	p := &stubPlayer{}
	rl := NewIPRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 3, CleanupInterval: DefaultRateLimitConfig.CleanupInterval})
	defer rl.Stop()
	h := NewRouter(RouterConfig{Player: p, RateLimiter: rl, DisableLogging: true})

	var rejected int
	for i := 0; i < 10; i++ {
		w := doJSON(t, h, "GET", "/api/status", "")
		if w.Code == http.StatusTooManyRequests {
			rejected++
		}
	}
	if rejected == 0 {
		t.Error("Expected some requests rejected after the burst")
	}
}
