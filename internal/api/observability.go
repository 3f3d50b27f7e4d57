package api

import (
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics with bounded cardinality (no per-camera labels to prevent DoS)
var (
	// Stream pipeline metrics
	framesPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_frames_published_total",
		Help: "Frames published into the frame buffer",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_frames_dropped_total",
		Help: "Frames dropped because a newer frame replaced them unread",
	})

	framesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_frames_rendered_total",
		Help: "Frames rendered through the viewport transform",
	})

	streamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "player_stream_errors_total",
		Help: "Stream failures by kind",
	}, []string{"kind"}) // Bounded: "open", "timeout", "read"

	sessionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "player_session_state",
		Help: "Current session state (0=idle 1=connecting 2=streaming 3=paused 4=stopping 5=failed)",
	})

	timeToFirstFrame = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "player_time_to_first_frame_seconds",
		Help:    "Time from start until the first frame arrives",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	})

	// Snapshot metrics
	snapshotsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_snapshots_saved_total",
		Help: "Snapshots written to disk",
	})

	snapshotErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "player_snapshot_errors_total",
		Help: "Snapshot attempts that failed",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket messages sent",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be "127.0.0.1:6060" in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// StartDebugServer starts the internal observability server
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS
func StartDebugServer(cfg ObservabilityConfig) error {
	if !cfg.Enabled {
		log.Println("debug server disabled")
		return nil
	}

	// SECURITY: Validate address is localhost
	if cfg.ListenAddr != "127.0.0.1:6060" && cfg.ListenAddr != "localhost:6060" {
		// Only allow external binding if explicitly enabled via env
		if os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
			log.Println("debug server forced to localhost for security")
			cfg.ListenAddr = "127.0.0.1:6060"
		}
	}

	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Optional basic auth wrapper
	var handler http.Handler = mux
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}

	go func() {
		log.Printf("debug server starting on %s", cfg.ListenAddr)

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			log.Printf("debug server error: %v", err)
		}
	}()

	return nil
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordFramePublished increments the published frame counter
func RecordFramePublished() {
	framesPublished.Inc()
}

// RecordFrameDropped increments the dropped frame counter
func RecordFrameDropped() {
	framesDropped.Inc()
}

// AddFramesDropped adds a batch of dropped frames, used when syncing
// from the frame buffer's internal counters
func AddFramesDropped(n uint64) {
	framesDropped.Add(float64(n))
}

// RecordFrameRendered increments the rendered frame counter
func RecordFrameRendered() {
	framesRendered.Inc()
}

// RecordStreamError increments the stream error counter.
// kind must be one of: "open", "timeout", "read"
func RecordStreamError(kind string) {
	streamErrors.WithLabelValues(kind).Inc()
}

// SetSessionState updates the session state gauge
func SetSessionState(state int) {
	sessionState.Set(float64(state))
}

// RecordTimeToFirstFrame records how long the stream took to produce
// its first frame after a start request
func RecordTimeToFirstFrame(d time.Duration) {
	timeToFirstFrame.Observe(d.Seconds())
}

// RecordSnapshotSaved increments the snapshot counter
func RecordSnapshotSaved() {
	snapshotsSaved.Inc()
}

// RecordSnapshotError increments the snapshot failure counter
func RecordSnapshotError() {
	snapshotErrors.Inc()
}

// RecordConnectionRejected increments the rejection counter.
// reason must be one of: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit"
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments WebSocket message counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}
