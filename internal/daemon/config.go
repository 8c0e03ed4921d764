// Package daemon loads configuration and wires the storage, services and
// HTTP server together.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk configuration (config.toml).
type Config struct {
	API      APIConfig      `toml:"api"`
	Database DatabaseConfig `toml:"database"`
	Auth     AuthConfig     `toml:"auth"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	ReadTimeout  string `toml:"read_timeout"`
	WriteTimeout string `toml:"write_timeout"`
	// SecureCookies marks the session cookie Secure; enable behind HTTPS.
	SecureCookies bool `toml:"secure_cookies"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Dir           string `toml:"dir"` // empty = $WAFLORA_HOME/data
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
}

// AuthConfig holds the admin credential and session settings.
type AuthConfig struct {
	AdminUsername     string `toml:"admin_username"`
	AdminPasswordHash string `toml:"admin_password_hash"` // bcrypt; empty disables admin login
	SessionSecret     string `toml:"session_secret"`      // empty = random per process
	SessionTTL        string `toml:"session_ttl"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console | json
}

// DefaultConfig returns safe defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  "10s",
			WriteTimeout: "30s",
		},
		Database: DatabaseConfig{
			BusyTimeoutMS: 5000,
		},
		Auth: AuthConfig{
			AdminUsername: "admin",
			SessionTTL:    "12h",
		},
		Metrics: MetricsConfig{Enabled: true},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Home returns the data root: $WAFLORA_HOME or ~/.waflora.
func Home() string {
	if env := os.Getenv("WAFLORA_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".waflora")
}

// ConfigPath returns the default config file location.
func ConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// LoadConfig reads path over the defaults. A missing file is not an error.
// Environment overrides are applied last.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config as TOML, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(c)
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("WAFLORA_API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WAFLORA_API_PORT: %w", err)
		}
		c.API.Port = port
	}
	if v := os.Getenv("WAFLORA_SESSION_SECRET"); v != "" {
		c.Auth.SessionSecret = v
	}
	if v := os.Getenv("WAFLORA_ADMIN_PASSWORD_HASH"); v != "" {
		c.Auth.AdminPasswordHash = v
	}
	return nil
}

// DataDir resolves the database directory.
func (c Config) DataDir() string {
	if c.Database.Dir != "" {
		return c.Database.Dir
	}
	return filepath.Join(Home(), "data")
}

// Addr returns host:port for the listener.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// parseDuration parses s, falling back to def when empty or invalid.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
