// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Kiosk       KioskConfig             `yaml:"kiosk"`
	Playback    PlaybackConfig          `yaml:"playback"`
	Media       MediaConfig             `yaml:"media"`
	Persistence PersistenceConfig       `yaml:"persistence"`
	Filters     map[string]FilterConfig `yaml:"filters"`
	Messages    MessagesConfig          `yaml:"messages"`
}

// KioskConfig represents kiosk presentation settings.
type KioskConfig struct {
	Title string `yaml:"title" default:"Student Affair Office Jukebox"`
}

// PlaybackConfig represents playback scheduling configuration.
type PlaybackConfig struct {
	InterTrackDelayMs int `yaml:"inter_track_delay_ms" default:"2000" validate:"gte=0,lte=60000"`
	EventBufferSize   int `yaml:"event_buffer_size" default:"64" validate:"gte=1"`
}

// MediaConfig represents the media player configuration.
type MediaConfig struct {
	Type     string         `yaml:"type" default:"simulated" validate:"oneof=simulated exec"`
	SongDir  string         `yaml:"song_dir" default:"songfiles" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// PersistenceConfig represents snapshot storage configuration.
// File names inside Dir are fixed by the backend.
type PersistenceConfig struct {
	Backend string `yaml:"backend" default:"file" validate:"oneof=file sqlite"`
	Dir     string `yaml:"dir" default:"." validate:"required"`
	Restore string `yaml:"restore" default:"ask" validate:"oneof=ask always never"`
	Save    string `yaml:"save" default:"ask" validate:"oneof=ask always never"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Success            string `yaml:"success" default:"Song added to the queue."`
	DefaultError       string `yaml:"default_error" default:"Something went wrong. Please try again."`
	NotLoggedIn        string `yaml:"not_logged_in" default:"No user logged in. Please log in or create an account to add songs."`
	DuplicateUsername  string `yaml:"duplicate_username" default:"Username unavailable. Please choose unique username"`
	InvalidCredentials string `yaml:"invalid_credentials" default:"Username/Password is incorrect. Create account if you are a new user"`
	QuotaExceeded      string `yaml:"quota_exceeded" default:"Sorry, you already added three songs today. Please come back tomorrow."`
	UnknownSong        string `yaml:"unknown_song" default:"That song is not in the catalog."`
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults. Environment variables take precedence
// over file values for paths.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		panic(err)
	}
	return &cfg
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("KIOSK_DATA_DIR"); v != "" {
		c.Persistence.Dir = v
	}
	if v := os.Getenv("KIOSK_SONG_DIR"); v != "" {
		c.Media.SongDir = v
	}
	if v := os.Getenv("KIOSK_MEDIA_COMMAND"); v != "" {
		if c.Media.Settings == nil {
			c.Media.Settings = make(map[string]any)
		}
		c.Media.Settings["command"] = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// InterTrackDelay returns the pause between tracks.
func (c *Config) InterTrackDelay() time.Duration {
	return time.Duration(c.Playback.InterTrackDelayMs) * time.Millisecond
}

// SongDir returns the absolute song directory when it can be resolved.
func (c *Config) SongDir() string {
	if abs, err := filepath.Abs(c.Media.SongDir); err == nil {
		return abs
	}
	return c.Media.SongDir
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return c.Messages.Success
	case "not_logged_in":
		return c.Messages.NotLoggedIn
	case "duplicate_username":
		return c.Messages.DuplicateUsername
	case "invalid_credentials":
		return c.Messages.InvalidCredentials
	case "quota_exceeded":
		return c.Messages.QuotaExceeded
	case "unknown_song":
		return c.Messages.UnknownSong
	default:
		return c.Messages.DefaultError
	}
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}
