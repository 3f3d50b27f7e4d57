package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"camplayer/internal/api"
	"camplayer/internal/camera"
	"camplayer/internal/config"
	"camplayer/internal/player"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("📹 ================================")
	log.Println("📹  CAMPLAYER - RTSP STREAM PLAYER")
	log.Println("📹 ================================")

	// Centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	playerCfg := appConfig.Player
	serverCfg := appConfig.Server

	// Persisted camera settings (protocol, host, credentials, resolution)
	settingsPath := config.SettingsPath()
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		log.Printf("⚠️ Could not read %s: %v (using defaults)", settingsPath, err)
		settings = config.DefaultSettings()
	}
	conn := settings.Connection()

	log.Printf("🎥 Camera: %s", conn.MaskedURI())
	log.Printf("🖥️ Viewport: %dx%d, preview %d fps", playerCfg.ViewportWidth, playerCfg.ViewportHeight, playerCfg.PreviewFPS)
	log.Printf("⏱️ Connect timeout: %s", playerCfg.ConnectTimeout)

	// SOURCE=test swaps the camera backend for a synthetic pattern,
	// useful when developing without a reachable camera.
	var opener camera.Opener = camera.GoCVOpener{}
	if os.Getenv("SOURCE") == "test" {
		opener = camera.TestPatternOpener{FPS: playerCfg.PreviewFPS}
		log.Println("🧪 Using synthetic test pattern source")
	}

	frames := player.NewFrameBuffer()
	session := player.NewStreamSession(opener, frames, playerCfg.ConnectTimeout)
	controller := player.NewController(session, frames, conn, playerCfg)

	// Event hub fans status and error events out to websocket clients.
	hub := api.NewWebSocketHub()
	go hub.Run()

	wireTelemetry(session, frames, hub)

	// Debug server (pprof + metrics, localhost only)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(api.DefaultObservabilityConfig()); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	router := api.NewRouter(api.RouterConfig{
		Player:     controller,
		Hub:        hub,
		PreviewFPS: playerCfg.PreviewFPS,
	})

	addr := ":" + strconv.Itoa(serverCfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
		// No WriteTimeout: /preview is a long-lived MJPEG stream.
	}

	go func() {
		log.Printf("🌐 API server on http://localhost%s", addr)
		log.Printf("🖼️ Preview: http://localhost%s/preview", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Player ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	session.Stop()

	// Persist whatever settings the operator last applied.
	if err := controller.Settings().Save(settingsPath); err != nil {
		log.Printf("⚠️ Could not save settings: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown: %v", err)
	}
	log.Println("👋 Goodbye!")
}

// wireTelemetry connects session callbacks to the websocket event feed
// and the Prometheus metrics.
func wireTelemetry(session *player.StreamSession, frames *player.FrameBuffer, hub *api.WebSocketHub) {
	var mu sync.Mutex
	var startedAt time.Time
	var prevDropped uint64

	session.OnStatus(func(msg string) {
		log.Printf("ℹ️ %s", msg)
		hub.BroadcastEvent("status", msg)

		if msg == player.StatusStarting {
			mu.Lock()
			startedAt = time.Now()
			mu.Unlock()
		}
	})

	session.OnError(func(msg string) {
		log.Printf("❌ %s", msg)
		hub.BroadcastEvent("error", msg)
		api.RecordStreamError(errorKind(msg))
	})

	session.OnFirstFrame(func() {
		hub.BroadcastEvent("first_frame", "First frame received")

		mu.Lock()
		t := startedAt
		mu.Unlock()
		if !t.IsZero() {
			api.RecordTimeToFirstFrame(time.Since(t))
		}
	})

	// OnFrame runs on the producer goroutine, so the dropped-frame delta
	// needs no extra synchronization.
	session.OnFrame(func(_ *player.Frame) {
		api.RecordFramePublished()
		_, dropped, _ := frames.Stats()
		if d := dropped - prevDropped; d > 0 {
			api.AddFramesDropped(d)
			prevDropped = dropped
		}
	})

	// State gauge is sampled rather than event-driven: transitions are
	// cheap to poll and this keeps the session free of metrics hooks.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			api.SetSessionState(int(session.State()))
		}
	}()
}

// errorKind maps a stream error message to a bounded metric label.
func errorKind(msg string) string {
	switch msg {
	case player.ErrMsgOpenTimeout:
		return "timeout"
	case player.ErrMsgReadFailed:
		return "read"
	default:
		return "open"
	}
}
