package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "tunedeck"

type Config struct {
	Player PlayerConfig `koanf:"player"`
	Log    LogConfig    `koanf:"log"`
	MPRIS  MPRISConfig  `koanf:"mpris"`
	Notify NotifyConfig `koanf:"notify"`
}

// PlayerConfig holds playback tuning. Zero values fall back to defaults,
// see GetPlayerConfig.
type PlayerConfig struct {
	Volume             *float64      `koanf:"volume"`               // initial volume 0.0-1.0 (default: 1.0)
	Repeat             bool          `koanf:"repeat"`               // start with repeat enabled
	ThrottleWindow     time.Duration `koanf:"throttle_window"`      // min spacing of play/pause (default: 300ms)
	ResetGrace         time.Duration `koanf:"reset_grace"`          // teardown settle time after a hard stop (default: 100ms)
	TimeUpdateInterval time.Duration `koanf:"time_update_interval"` // progress tick while playing (default: 250ms)
	PlayDebounce       time.Duration `koanf:"play_debounce"`        // delay before play/pause after a store change (default: 300ms)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error (default: info)
	File  string `koanf:"file"`  // log file path (default: $XDG_STATE_HOME/tunedeck/tunedeck.log)
}

// MPRISConfig holds the D-Bus media player integration settings.
type MPRISConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	Enabled *bool `koanf:"enabled"` // default: false
}

// Defaults for PlayerConfig fields.
const (
	DefaultVolume             = 1.0
	DefaultThrottleWindow     = 300 * time.Millisecond
	DefaultResetGrace         = 100 * time.Millisecond
	DefaultTimeUpdateInterval = 250 * time.Millisecond
	DefaultPlayDebounce       = 300 * time.Millisecond
	DefaultLogLevel           = "info"
)

// Load reads the config files in priority order. An explicit path, when
// given, is loaded last and must exist.
func Load(explicit string) (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}
	if explicit != "" {
		if err := k.Load(file.Provider(expandPath(explicit)), toml.Parser()); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/tunedeck/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetPlayerConfig returns the player configuration with defaults applied.
func (c *Config) GetPlayerConfig() PlayerConfig {
	cfg := c.Player

	if cfg.Volume == nil {
		v := DefaultVolume
		cfg.Volume = &v
	} else {
		v := min(max(*cfg.Volume, 0), 1)
		cfg.Volume = &v
	}
	if cfg.ThrottleWindow <= 0 {
		cfg.ThrottleWindow = DefaultThrottleWindow
	}
	if cfg.ResetGrace <= 0 {
		cfg.ResetGrace = DefaultResetGrace
	}
	if cfg.TimeUpdateInterval <= 0 {
		cfg.TimeUpdateInterval = DefaultTimeUpdateInterval
	}
	if cfg.PlayDebounce <= 0 {
		cfg.PlayDebounce = DefaultPlayDebounce
	}

	return cfg
}

// InitialVolume returns the configured start volume.
func (p PlayerConfig) InitialVolume() float64 {
	if p.Volume == nil {
		return DefaultVolume
	}
	return *p.Volume
}

// LogLevel returns the configured level name, defaulting to info.
func (c *Config) LogLevel() string {
	if c.Log.Level == "" {
		return DefaultLogLevel
	}
	return c.Log.Level
}

// LogFile returns the log file path, defaulting to the XDG state dir.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

// MPRISEnabled reports whether the D-Bus integration should start.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS.Enabled == nil || *c.MPRIS.Enabled
}

// NotifyEnabled reports whether desktop notifications should be posted.
func (c *Config) NotifyEnabled() bool {
	return c.Notify.Enabled != nil && *c.Notify.Enabled
}
