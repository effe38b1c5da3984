package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/krisalay/expiring-cache/writepolicy"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSessionTTL  = 15 * time.Minute
	DefaultShards      = 4
	DefaultWritePolicy = writepolicy.Through
	DefaultWriteBuffer = 1024
	DefaultLogLevel    = "info"
)

// Environment variables that override the file.
const (
	EnvSessionTTL = "EXPIRING_CACHE_SESSION_TTL"
	EnvLogLevel   = "EXPIRING_CACHE_LOG_LEVEL"
)

// Config is the top-level configuration.
type Config struct {
	Sessions SessionsConfig `yaml:"sessions"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SessionsConfig controls the per-player session cache.
type SessionsConfig struct {
	// TTL is how long an idle player's state stays in memory.
	TTL time.Duration `yaml:"ttl"`

	// Shards is the number of independently locked containers.
	Shards int `yaml:"shards"`

	// WritePolicy is one of: through | back.
	WritePolicy string `yaml:"write_policy"`

	// WriteBuffer is the write-back queue length.
	WriteBuffer int `yaml:"write_buffer"`
}

// Mode returns the parsed write policy. Load has already validated it.
func (s SessionsConfig) Mode() writepolicy.Mode {
	return writepolicy.Mode(s.WritePolicy)
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel converts Level to a slog.Level. Load has already validated it.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	_ = lvl.UnmarshalText([]byte(l.Level))
	return lvl
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address for GET /metrics, e.g. ":9102".
	Addr string `yaml:"addr"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Sessions: SessionsConfig{
			TTL:         DefaultSessionTTL,
			Shards:      DefaultShards,
			WritePolicy: string(DefaultWritePolicy),
			WriteBuffer: DefaultWriteBuffer,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// applyEnv overrides file values with any set environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvSessionTTL); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSessionTTL, err)
		}
		cfg.Sessions.TTL = ttl
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Sessions.TTL <= 0 {
		return fmt.Errorf("sessions.ttl must be positive")
	}
	if cfg.Sessions.Shards <= 0 {
		return fmt.Errorf("sessions.shards must be positive")
	}
	if _, err := writepolicy.ParseMode(cfg.Sessions.WritePolicy); err != nil {
		return fmt.Errorf("sessions.write_policy: %w", err)
	}
	if cfg.Sessions.WriteBuffer <= 0 {
		return fmt.Errorf("sessions.write_buffer must be positive")
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	return nil
}
