// Package config provides configuration loading for nowplaying.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gigurra/nowplaying/cmd/common"
)

const (
	SourceAuto        = "auto"
	SourceAppleScript = "applescript"
	SourceMPRIS       = "mpris"
)

const (
	DefaultMaxDisplayLength      = 50
	DefaultPlayingPollInterval   = 1.0
	DefaultPausedPollInterval    = 3.0
	DefaultQueryTimeout          = 3.0
	DefaultSourceInitDelay       = 2.0
	DefaultLivenessCheckInterval = 2.0
	DefaultNotificationCooldown  = 5
	DefaultMPRISPlayer           = "spotify"
	DefaultPlayingSymbol         = "♫"
	DefaultPausedSymbol          = "❚❚"
	DefaultIdleSymbol            = "♫"
)

// Config represents the nowplaying configuration file structure.
type Config struct {
	MaxDisplayLength             int                 `json:"max_display_length"`
	PlayingPollIntervalSeconds   float64             `json:"playing_poll_interval_seconds"`
	PausedPollIntervalSeconds    float64             `json:"paused_poll_interval_seconds"`
	QueryTimeoutSeconds          float64             `json:"query_timeout_seconds"`
	SourceInitDelaySeconds       float64             `json:"source_init_delay_seconds"`
	LivenessCheckIntervalSeconds float64             `json:"liveness_check_interval_seconds"`
	Source                       string              `json:"source"`
	ProcessName                  string              `json:"process_name"`
	MPRISPlayer                  string              `json:"mpris_player"`
	Symbols                      *SymbolConfig       `json:"symbols,omitempty"`
	Notifications                *NotificationConfig `json:"notifications,omitempty"`
}

// SymbolConfig holds the icons shown in front of the label.
type SymbolConfig struct {
	Playing string `json:"playing"`
	Paused  string `json:"paused"`
	Idle    string `json:"idle"`
}

// NotificationConfig holds settings for desktop notifications on track changes.
type NotificationConfig struct {
	Enabled         bool `json:"enabled"`
	CooldownSeconds int  `json:"cooldown_seconds,omitempty"`
}

// DefaultProcessName is the player's process name on the current OS.
func DefaultProcessName() string {
	if runtime.GOOS == "darwin" {
		return "Spotify"
	}
	return "spotify"
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxDisplayLength:             DefaultMaxDisplayLength,
		PlayingPollIntervalSeconds:   DefaultPlayingPollInterval,
		PausedPollIntervalSeconds:    DefaultPausedPollInterval,
		QueryTimeoutSeconds:          DefaultQueryTimeout,
		SourceInitDelaySeconds:       DefaultSourceInitDelay,
		LivenessCheckIntervalSeconds: DefaultLivenessCheckInterval,
		Source:                       SourceAuto,
		ProcessName:                  DefaultProcessName(),
		MPRISPlayer:                  DefaultMPRISPlayer,
		Symbols: &SymbolConfig{
			Playing: DefaultPlayingSymbol,
			Paused:  DefaultPausedSymbol,
			Idle:    DefaultIdleSymbol,
		},
		Notifications: &NotificationConfig{
			Enabled:         false,
			CooldownSeconds: DefaultNotificationCooldown,
		},
	}
}

// ConfigPath returns the path to the config file (~/.nowplaying/config.json).
func ConfigPath() string {
	return filepath.Join(common.ConfigDir(), "config.json")
}

// Load loads the config from path, or from ConfigPath() when path is empty.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &config, nil
}

// Save saves the config to path, or to ConfigPath() when path is empty.
func Save(path string, config *Config) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyDefaults fills in missing fields. Zero values count as missing.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.MaxDisplayLength == 0 {
		c.MaxDisplayLength = def.MaxDisplayLength
	}
	if c.PlayingPollIntervalSeconds == 0 {
		c.PlayingPollIntervalSeconds = def.PlayingPollIntervalSeconds
	}
	if c.PausedPollIntervalSeconds == 0 {
		c.PausedPollIntervalSeconds = def.PausedPollIntervalSeconds
	}
	if c.QueryTimeoutSeconds == 0 {
		c.QueryTimeoutSeconds = def.QueryTimeoutSeconds
	}
	if c.SourceInitDelaySeconds == 0 {
		c.SourceInitDelaySeconds = def.SourceInitDelaySeconds
	}
	if c.LivenessCheckIntervalSeconds == 0 {
		c.LivenessCheckIntervalSeconds = def.LivenessCheckIntervalSeconds
	}
	if c.Source == "" {
		c.Source = def.Source
	}
	if c.ProcessName == "" {
		c.ProcessName = def.ProcessName
	}
	if c.MPRISPlayer == "" {
		c.MPRISPlayer = def.MPRISPlayer
	}

	if c.Symbols == nil {
		c.Symbols = def.Symbols
	} else {
		if c.Symbols.Playing == "" {
			c.Symbols.Playing = def.Symbols.Playing
		}
		if c.Symbols.Paused == "" {
			c.Symbols.Paused = def.Symbols.Paused
		}
		if c.Symbols.Idle == "" {
			c.Symbols.Idle = def.Symbols.Idle
		}
	}

	if c.Notifications == nil {
		c.Notifications = def.Notifications
	} else if c.Notifications.CooldownSeconds == 0 {
		c.Notifications.CooldownSeconds = def.Notifications.CooldownSeconds
	}
}

// Validate checks that intervals are positive and the source is known.
func (c *Config) Validate() error {
	if c.MaxDisplayLength < 0 {
		return fmt.Errorf("max_display_length must not be negative, got %d", c.MaxDisplayLength)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"playing_poll_interval_seconds", c.PlayingPollIntervalSeconds},
		{"paused_poll_interval_seconds", c.PausedPollIntervalSeconds},
		{"query_timeout_seconds", c.QueryTimeoutSeconds},
		{"source_init_delay_seconds", c.SourceInitDelaySeconds},
		{"liveness_check_interval_seconds", c.LivenessCheckIntervalSeconds},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, p.value)
		}
	}
	switch c.Source {
	case SourceAuto, SourceAppleScript, SourceMPRIS:
	default:
		return fmt.Errorf("unknown source %q (want %s, %s or %s)", c.Source, SourceAuto, SourceAppleScript, SourceMPRIS)
	}
	return nil
}

func (c *Config) PlayingPollInterval() time.Duration {
	return seconds(c.PlayingPollIntervalSeconds)
}

func (c *Config) PausedPollInterval() time.Duration {
	return seconds(c.PausedPollIntervalSeconds)
}

func (c *Config) QueryTimeout() time.Duration {
	return seconds(c.QueryTimeoutSeconds)
}

func (c *Config) SourceInitDelay() time.Duration {
	return seconds(c.SourceInitDelaySeconds)
}

func (c *Config) LivenessCheckInterval() time.Duration {
	return seconds(c.LivenessCheckIntervalSeconds)
}

// NotificationCooldown returns the minimum time between two desktop notifications.
func (c *Config) NotificationCooldown() time.Duration {
	if c.Notifications == nil {
		return 0
	}
	return time.Duration(c.Notifications.CooldownSeconds) * time.Second
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
