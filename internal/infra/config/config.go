// Package config provides runtime configuration for membridge, loaded
// from an optional YAML file with environment-variable overrides.
// All fields have safe defaults so the binary runs locally without any
// setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the server.
type Config struct {
	Host string // MEMBRIDGE_HOST — default "127.0.0.1" (trusted local interface)
	Port int    // MEMBRIDGE_PORT — default 8321

	// PublicURL is the base URL advertised on the SSE endpoint event.
	// Empty means derive it from the incoming request.
	PublicURL string // MEMBRIDGE_PUBLIC_URL

	// PingInterval is the SSE keep-alive period.
	PingInterval time.Duration // MEMBRIDGE_PING_INTERVAL — default 30s

	// ShutdownGrace bounds how long outstanding handlers may run during
	// shutdown before transport resources are released.
	ShutdownGrace time.Duration // MEMBRIDGE_SHUTDOWN_GRACE — default 10s

	// AuditDBPath is the SQLite file holding the RPC audit trail.
	// ":memory:" keeps it ephemeral; empty disables auditing.
	AuditDBPath string // MEMBRIDGE_AUDIT_DB — default ":memory:"

	// ServerName is advertised in the initialize result.
	ServerName string // MEMBRIDGE_SERVER_NAME — default "membridge"
}

// fileConfig mirrors Config for YAML decoding. Durations are strings
// ("30s", "1m") because yaml.v3 has no native time.Duration support.
type fileConfig struct {
	Host          string  `yaml:"host"`
	Port          int     `yaml:"port"`
	PublicURL     string  `yaml:"public_url"`
	PingInterval  string  `yaml:"ping_interval"`
	ShutdownGrace string  `yaml:"shutdown_grace"`
	AuditDBPath   *string `yaml:"audit_db"` // pointer: "" disables, absent keeps default
	ServerName    string  `yaml:"server_name"`
}

const (
	envKeyHost          = "MEMBRIDGE_HOST"
	envKeyPort          = "MEMBRIDGE_PORT"
	envKeyPublicURL     = "MEMBRIDGE_PUBLIC_URL"
	envKeyPingInterval  = "MEMBRIDGE_PING_INTERVAL"
	envKeyShutdownGrace = "MEMBRIDGE_SHUTDOWN_GRACE"
	envKeyAuditDB       = "MEMBRIDGE_AUDIT_DB"
	envKeyServerName    = "MEMBRIDGE_SERVER_NAME"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          8321,
		PingInterval:  30 * time.Second,
		ShutdownGrace: 10 * time.Second,
		AuditDBPath:   ":memory:",
		ServerName:    "membridge",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}

	if fc.Host != "" {
		cfg.Host = fc.Host
	}
	if fc.Port != 0 {
		cfg.Port = fc.Port
	}
	if fc.PublicURL != "" {
		cfg.PublicURL = fc.PublicURL
	}
	if fc.ServerName != "" {
		cfg.ServerName = fc.ServerName
	}
	if fc.AuditDBPath != nil {
		cfg.AuditDBPath = *fc.AuditDBPath
	}
	if err := parseDuration(path, "ping_interval", fc.PingInterval, &cfg.PingInterval); err != nil {
		return err
	}
	return parseDuration(path, "shutdown_grace", fc.ShutdownGrace, &cfg.ShutdownGrace)
}

func applyEnv(cfg *Config) error {
	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.PublicURL = envOr(envKeyPublicURL, cfg.PublicURL)
	cfg.ServerName = envOr(envKeyServerName, cfg.ServerName)
	if v, set := os.LookupEnv(envKeyAuditDB); set {
		cfg.AuditDBPath = v
	}

	if v := os.Getenv(envKeyPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a port: %w", envKeyPort, v, err)
		}
		cfg.Port = port
	}
	if err := envDuration(envKeyPingInterval, &cfg.PingInterval); err != nil {
		return err
	}
	return envDuration(envKeyShutdownGrace, &cfg.ShutdownGrace)
}

func parseDuration(path, key, value string, dst *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("config: %q: %s=%q is not a duration: %w", path, key, value, err)
	}
	*dst = d
	return nil
}

// envOr returns the value of the environment variable key, or fallback if
// not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s=%q is not a duration: %w", key, v, err)
	}
	*dst = d
	return nil
}
