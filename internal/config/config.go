package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults for the importance ranking. The scale is applied to every
// friend's score once per processed inbound alert, so anyone the user stops
// pinging fades out of the top set as traffic keeps arriving.
const (
	DefaultImportanceScale = 0.95
	DefaultMaxImportant    = 5
	DefaultRequestTimeout  = 30 * time.Second
)

// Config represents the global ~/.nudge/config.toml.
type Config struct {
	DefaultSession string             `toml:"default_session"`
	Server         ServerConfig       `toml:"server"`
	Notifications  NotificationConfig `toml:"notifications"`
	Importance     ImportanceConfig   `toml:"importance"`
}

// ServerConfig holds alert-server connection settings.
type ServerConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NotificationConfig gates platform notifications. Enabled false makes the
// notifier a no-op and routes inbound alerts to the missed channel.
type NotificationConfig struct {
	Enabled bool `toml:"enabled"`
}

// ImportanceConfig tunes the friend ranking.
type ImportanceConfig struct {
	Scale        float64 `toml:"scale"`
	MaxImportant int     `toml:"max_important"`
}

// Timeout returns the configured request timeout, or the default.
func (s ServerConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	// Notifications are on unless the file says otherwise; a zero-value
	// bool cannot tell "absent" from "disabled".
	if !md.IsDefined("notifications", "enabled") {
		cfg.Notifications.Enabled = true
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config with every tunable at its default value.
func Default() *Config {
	cfg := &Config{
		Notifications: NotificationConfig{Enabled: true},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Importance.Scale <= 0 || c.Importance.Scale >= 1 {
		c.Importance.Scale = DefaultImportanceScale
	}
	if c.Importance.MaxImportant <= 0 {
		c.Importance.MaxImportant = DefaultMaxImportant
	}
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
