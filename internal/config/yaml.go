package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/gennetta/gennetta/internal/connector"
)

// YAMLConfig represents the top-level gennetta.yaml file.
type YAMLConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Drivers   DriversConfig   `yaml:"drivers"`
	Generator GeneratorConfig `yaml:"generator"`
	MCP       MCPConfig       `yaml:"mcp"`
	Logging   LoggingConfig   `yaml:"logging"`
	DataDir   string          `yaml:"data_dir"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string          `yaml:"host"`
	Port            int             `yaml:"port"`
	MaxBodySize     string          `yaml:"max_body_size"`
	ShutdownTimeout string          `yaml:"shutdown_timeout"`
	CORS            CORSConfig      `yaml:"cors"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// BodyLimit parses MaxBodySize ("10MB", "512KiB"). Empty means no limit.
func (s ServerConfig) BodyLimit() (int64, error) {
	if s.MaxBodySize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s.MaxBodySize)
	if err != nil {
		return 0, fmt.Errorf("server.max_body_size: %w", err)
	}
	return int64(n), nil
}

// ShutdownAfter parses ShutdownTimeout, defaulting to 30s.
func (s ServerConfig) ShutdownAfter() (time.Duration, error) {
	return parseDuration("server.shutdown_timeout", s.ShutdownTimeout, 30*time.Second)
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
	Methods []string `yaml:"methods"`
}

// RateLimitConfig bounds schema analysis requests per client IP. Zero
// requests disables the limit.
type RateLimitConfig struct {
	Requests int    `yaml:"requests"`
	Window   string `yaml:"window"`
}

// WindowDuration parses Window, defaulting to one minute.
func (r RateLimitConfig) WindowDuration() (time.Duration, error) {
	return parseDuration("server.rate_limit.window", r.Window, time.Minute)
}

// AuthConfig controls bearer token authentication of the API. Auth is off
// while JWTSecret is empty.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	JWTExpiry string `yaml:"jwt_expiry"`
}

// Expiry parses JWTExpiry, defaulting to one hour.
func (a AuthConfig) Expiry() (time.Duration, error) {
	return parseDuration("auth.jwt_expiry", a.JWTExpiry, time.Hour)
}

// DriversConfig selects the default driver and per-driver overrides.
type DriversConfig struct {
	Default  string                  `yaml:"default"`
	Demo     bool                    `yaml:"demo"`
	Settings map[string]DriverConfig `yaml:"settings,omitempty"`

	// SQLite exposes the sqlite driver on network transports (serve, mcp
	// over http). Local commands always have it.
	SQLite bool `yaml:"sqlite"`
}

// DriverConfig holds overrides for one driver.
type DriverConfig struct {
	Schema  string `yaml:"schema,omitempty"`
	SSLMode string `yaml:"sslmode,omitempty"`
	Root    string `yaml:"root,omitempty"`
}

// Connector converts the overrides for driver into a connector.Config.
func (d DriversConfig) Connector(driver string) connector.Config {
	s := d.Settings[driver]
	return connector.Config{SchemaName: s.Schema, SSLMode: s.SSLMode, Root: os.ExpandEnv(s.Root)}
}

// GeneratorConfig sets generation defaults.
type GeneratorConfig struct {
	Project string `yaml:"project"`
}

// MCPConfig controls the MCP (Model Context Protocol) server.
type MCPConfig struct {
	Transport string `yaml:"transport"`
	Addr      string `yaml:"addr"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func parseDuration(key, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before
// parsing. Keys absent from the file keep their defaults.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with sensible defaults.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			MaxBodySize:     "10MB",
			ShutdownTimeout: "30s",
			CORS: CORSConfig{
				Origins: []string{"*"},
				Methods: []string{"GET", "POST", "PUT", "DELETE"},
			},
			RateLimit: RateLimitConfig{
				Requests: 30,
				Window:   "1m",
			},
		},
		Auth: AuthConfig{
			JWTExpiry: "1h",
		},
		Drivers: DriversConfig{
			Default: "mssql",
			Demo:    true,
			Settings: map[string]DriverConfig{
				"mssql":    {Schema: "dbo"},
				"postgres": {Schema: "public", SSLMode: "prefer"},
			},
		},
		Generator: GeneratorConfig{
			Project: "GeneratedApp",
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      ":8081",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	cfg := DefaultYAMLConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
