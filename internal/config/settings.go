package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultSettingsPath is where camera settings persist between runs unless
// SETTINGS_PATH overrides it.
const DefaultSettingsPath = "settings.json"

// Settings is the persisted camera configuration. It is loaded at startup
// and written back at shutdown so the last-used camera survives restarts.
type Settings struct {
	Protocol        string `json:"protocol"`
	User            string `json:"user"`
	Secret          string `json:"secret"`
	IP              string `json:"ip"`
	Port            int    `json:"port"`
	StreamPath      string `json:"stream_path"`
	VideoResolution string `json:"video_resolution"` // "WxH" text form
}

// DefaultSettings returns the settings used on first run.
func DefaultSettings() Settings {
	return Settings{
		Protocol:        "rtsp",
		Port:            554,
		VideoResolution: "1920x1080",
	}
}

// SettingsPath resolves the settings file location from the environment.
func SettingsPath() string {
	if p := os.Getenv("SETTINGS_PATH"); p != "" {
		return p
	}
	return DefaultSettingsPath
}

// LoadSettings reads the settings file. A missing file is not an error:
// first-run defaults are returned instead.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return DefaultSettings(), fmt.Errorf("read settings: %w", err)
	}

	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings: %w", err)
	}
	if s.Protocol == "" {
		s.Protocol = "rtsp"
	}
	if s.Port == 0 {
		s.Port = 554
	}
	if s.VideoResolution == "" {
		s.VideoResolution = "1920x1080"
	}
	return s, nil
}

// Save writes the settings file, creating parent directories as needed.
func (s Settings) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Connection builds the immutable per-session connection config from the
// persisted settings.
func (s Settings) Connection() ConnectionConfig {
	w, h := ParseResolution(s.VideoResolution)
	return ConnectionConfig{
		Scheme: s.Protocol,
		User:   s.User,
		Secret: s.Secret,
		Host:   s.IP,
		Port:   s.Port,
		Path:   s.StreamPath,
		Width:  w,
		Height: h,
	}
}

// SettingsFromConnection is the inverse of Connection, used when the
// control surface updates the camera configuration.
func SettingsFromConnection(c ConnectionConfig) Settings {
	return Settings{
		Protocol:        c.Scheme,
		User:            c.User,
		Secret:          c.Secret,
		IP:              c.Host,
		Port:            c.Port,
		StreamPath:      c.Path,
		VideoResolution: FormatResolution(c.Width, c.Height),
	}
}
