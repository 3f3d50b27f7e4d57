package api

import (
	"image"
	"net/http"

	"camplayer/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlayerInterface defines the player methods used by the API.
// This interface enables mocking for tests without a camera or a session.
// Keep this minimal - only include methods the API layer actually calls.
type PlayerInterface interface {
	// Start begins a connection attempt with the configured camera
	Start() error
	// Stop ends the current session (idempotent)
	Stop()
	// TogglePause pauses a streaming session or resumes a paused one
	TogglePause()
	// State returns the session state name
	State() string
	// Render returns the current transformed frame, nil if none yet
	Render() *image.NRGBA
	// Snapshot saves the last rendered frame, returns the path written
	Snapshot(baseName string) (string, error)
	// View adjustments
	ZoomIn()
	ZoomOut()
	Pan(dx, dy int)
	ResetView()
	// Settings accessors for the config endpoints
	Settings() config.Settings
	UpdateSettings(config.Settings)
	// Stats returns current player statistics
	Stats() map[string]interface{}
}

// RouterConfig contains all dependencies needed to construct the HTTP
// router. Designed for dependency injection and testability:
//
//	cfg := api.RouterConfig{
//	    Player: stubPlayer,
//	    RateLimitConfig: &api.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
//	}
//	ts := httptest.NewServer(api.NewRouter(cfg))
type RouterConfig struct {
	// Player is the player controller (required)
	Player PlayerInterface

	// Hub is an optional websocket hub for the event feed. If nil the /ws
	// endpoint is not mounted.
	Hub *WebSocketHub

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, one is created from RateLimitConfig (or defaults).
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter,
	// used only when RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// Defaults to localhost origins - this is an operator tool.
	CORSOrigins []string

	// PreviewFPS caps the MJPEG preview frame rate. Defaults to 15.
	PreviewFPS int

	// DisableLogging disables the request logger middleware (useful for
	// tests and benchmarks).
	DisableLogging bool
}

// routerHandlers holds the dependencies the handler functions close over.
type routerHandlers struct {
	player     PlayerInterface
	hub        *WebSocketHub
	previewFPS int
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// This function is PURE - no goroutines, no listeners, no background
// workers - which makes it safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early.
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{
			"http://localhost:*",
			"http://127.0.0.1:*",
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	previewFPS := cfg.PreviewFPS
	if previewFPS <= 0 {
		previewFPS = 15
	}

	h := &routerHandlers{
		player:     cfg.Player,
		hub:        cfg.Hub,
		previewFPS: previewFPS,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Post("/start", h.handleStart)
		r.Post("/stop", h.handleStop)
		r.Post("/pause", h.handlePause)
		r.Post("/snapshot", h.handleSnapshot)
		r.Get("/config", h.handleGetConfig)
		r.Put("/config", h.handleUpdateConfig)
		r.Route("/view", func(r chi.Router) {
			r.Post("/zoom", h.handleZoom)
			r.Post("/pan", h.handlePan)
			r.Post("/reset", h.handleResetView)
		})
	})

	r.Get("/preview", h.handlePreview)
	if cfg.Hub != nil {
		r.Get("/ws", cfg.Hub.ServeWS)
	}
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
