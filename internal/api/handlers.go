package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"log"
	"net/http"

	"camplayer/internal/config"

	"golang.org/x/time/rate"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *routerHandlers) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.player.Stats())
}

func (h *routerHandlers) handleStart(w http.ResponseWriter, _ *http.Request) {
	if err := h.player.Start(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": h.player.State()})
}

func (h *routerHandlers) handleStop(w http.ResponseWriter, _ *http.Request) {
	h.player.Stop()
	writeJSON(w, http.StatusOK, map[string]string{"state": h.player.State()})
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, _ *http.Request) {
	h.player.TogglePause()
	writeJSON(w, http.StatusOK, map[string]string{"state": h.player.State()})
}

func (h *routerHandlers) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Base string `json:"base"`
	}
	// An empty body is fine - the player picks a default base name.
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	path, err := h.player.Snapshot(req.Base)
	if err != nil {
		RecordSnapshotError()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	RecordSnapshotSaved()
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (h *routerHandlers) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Direction {
	case "in":
		h.player.ZoomIn()
	case "out":
		h.player.ZoomOut()
	default:
		writeError(w, http.StatusBadRequest, "direction must be \"in\" or \"out\"")
		return
	}
	writeJSON(w, http.StatusOK, h.player.Stats())
}

func (h *routerHandlers) handlePan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX int `json:"dx"`
		DY int `json:"dy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.player.Pan(req.DX, req.DY)
	writeJSON(w, http.StatusOK, h.player.Stats())
}

func (h *routerHandlers) handleResetView(w http.ResponseWriter, _ *http.Request) {
	h.player.ResetView()
	writeJSON(w, http.StatusOK, h.player.Stats())
}

// handleGetConfig returns the persisted camera settings with the secret
// masked. The raw secret never leaves the process.
func (h *routerHandlers) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	s := h.player.Settings()
	s.Secret = config.MaskSecret(s.Secret)
	writeJSON(w, http.StatusOK, s)
}

// handleUpdateConfig replaces the camera settings wholesale. The new
// config applies on the next Start.
func (h *routerHandlers) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings body")
		return
	}
	if s.Protocol == "" {
		s.Protocol = "rtsp"
	}
	if s.Port == 0 {
		s.Port = 554
	}
	h.player.UpdateSettings(s)

	masked := s
	masked.Secret = config.MaskSecret(s.Secret)
	writeJSON(w, http.StatusOK, masked)
}

// handlePreview streams the transformed view as multipart MJPEG, paced by
// a rate limiter so a fast client cannot make us render faster than the
// configured preview rate.
func (h *routerHandlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	const boundary = "frame"
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.WriteHeader(http.StatusOK)

	limiter := rate.NewLimiter(rate.Limit(h.previewFPS), 1)
	var buf bytes.Buffer

	for {
		if err := limiter.Wait(r.Context()); err != nil {
			return // client went away
		}

		img := h.player.Render()
		if img == nil {
			continue
		}
		RecordFrameRendered()

		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
			log.Printf("api: preview encode: %v", err)
			continue
		}

		if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", boundary, buf.Len()); err != nil {
			return
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			return
		}
		flusher.Flush()
	}
}
