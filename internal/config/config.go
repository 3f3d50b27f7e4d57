// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for connection, player and server
// settings. Camera settings persist across runs (see settings.go); the
// rest is defaults plus environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoHost is returned when a connection is attempted without a camera
// host configured. The control surface uses it to refuse Start up front
// instead of failing mid-flight.
var ErrNoHost = errors.New("camera host is not configured")

// =============================================================================
// CONNECTION CONFIGURATION
// =============================================================================

// ConnectionConfig describes one camera connection attempt. It is immutable
// per session: when settings change the whole struct is rebuilt, never
// patched in place.
type ConnectionConfig struct {
	Scheme string // Usually "rtsp"
	User   string
	Secret string
	Host   string
	Port   int
	Path   string
	Width  int // Requested frame width; source frames are resized to this
	Height int // Requested frame height
}

// DefaultConnection returns the default connection configuration.
func DefaultConnection() ConnectionConfig {
	return ConnectionConfig{
		Scheme: "rtsp",
		Port:   554, // Default RTSP port
		Width:  1920,
		Height: 1080,
	}
}

// Validate checks the invariants required to attempt a connection.
func (c ConnectionConfig) Validate() error {
	if c.Host == "" {
		return ErrNoHost
	}
	return nil
}

// URI builds the full camera URI including credentials.
// Never log or display this string - use MaskedURI instead.
func (c ConnectionConfig) URI() string {
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s", c.Scheme, c.User, c.Secret, c.Host, c.Port, c.Path)
}

// MaskedURI is the display form of the URI with the secret replaced by
// asterisks of matching length.
func (c ConnectionConfig) MaskedURI() string {
	return fmt.Sprintf("%s://%s:%s@%s:%d/%s", c.Scheme, c.User, MaskSecret(c.Secret), c.Host, c.Port, c.Path)
}

// MaskSecret replaces every character of s with an asterisk.
func MaskSecret(s string) string {
	return strings.Repeat("*", len(s))
}

// Redact masks the secret inside an arbitrary string, typically an error
// message that may echo the connection URI back.
func (c ConnectionConfig) Redact(s string) string {
	if c.Secret == "" {
		return s
	}
	return strings.ReplaceAll(s, c.Secret, MaskSecret(c.Secret))
}

// =============================================================================
// RESOLUTION PRESETS
// =============================================================================

// ResolutionPreset maps a preset label to pixel dimensions.
// Unknown labels fall back to 1080p.
func ResolutionPreset(label string) (width, height int) {
	switch label {
	case "1080p":
		return 1920, 1080
	case "720p":
		return 1280, 720
	case "480p":
		return 640, 480
	default:
		return 1920, 1080
	}
}

// PresetLabel is the inverse of ResolutionPreset for display purposes.
// Non-preset dimensions are rendered as "WxH".
func PresetLabel(width, height int) string {
	switch {
	case width == 1920 && height == 1080:
		return "1080p"
	case width == 1280 && height == 720:
		return "720p"
	case width == 640 && height == 480:
		return "480p"
	default:
		return FormatResolution(width, height)
	}
}

// ParseResolution parses "WxH" text as persisted in the settings file.
// Malformed input falls back to 1080p.
func ParseResolution(s string) (width, height int) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 1920, 1080
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 1920, 1080
	}
	return w, h
}

// FormatResolution renders dimensions as the "WxH" text form used by the
// settings file.
func FormatResolution(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// =============================================================================
// PLAYER CONFIGURATION
// =============================================================================

// PlayerConfig holds stream acquisition and presentation settings.
type PlayerConfig struct {
	ConnectTimeout time.Duration // Bound on the blocking camera open call
	ViewportWidth  int           // Presentation window width in pixels
	ViewportHeight int           // Presentation window height in pixels
	SnapshotDir    string        // Directory snapshots are written into
	PreviewFPS     int           // Frame rate cap for the MJPEG preview
}

// DefaultPlayer returns the default player configuration.
func DefaultPlayer() PlayerConfig {
	return PlayerConfig{
		ConnectTimeout: 20 * time.Second,
		ViewportWidth:  1280,
		ViewportHeight: 720,
		SnapshotDir:    "snapshots",
		PreviewFPS:     15,
	}
}

// PlayerFromEnv returns player configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func PlayerFromEnv() PlayerConfig {
	cfg := DefaultPlayer()

	if t := getEnvInt("CONNECT_TIMEOUT_SECONDS", 0); t > 0 {
		cfg.ConnectTimeout = time.Duration(t) * time.Second
	}
	if w := getEnvInt("VIEWPORT_WIDTH", 0); w > 0 {
		cfg.ViewportWidth = w
	}
	if h := getEnvInt("VIEWPORT_HEIGHT", 0); h > 0 {
		cfg.ViewportHeight = h
	}
	if d := os.Getenv("SNAPSHOT_DIR"); d != "" {
		cfg.SnapshotDir = d
	}
	if f := getEnvInt("PREVIEW_FPS", 0); f > 0 {
		cfg.PreviewFPS = f
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP control server settings.
type ServerConfig struct {
	Port int
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Player PlayerConfig
	Server ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Player: PlayerFromEnv(),
		Server: ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
