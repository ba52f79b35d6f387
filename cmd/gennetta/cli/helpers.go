package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/connector/demo"
	"github.com/gennetta/gennetta/internal/connector/mssql"
	"github.com/gennetta/gennetta/internal/connector/mysql"
	"github.com/gennetta/gennetta/internal/connector/postgres"
	"github.com/gennetta/gennetta/internal/connector/sqlite"
)

// loadSettings merges, lowest first: built-in defaults, the config file, then
// GENNETTA_* environment variables and bound flags.
func loadSettings() (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()
	if f := viper.ConfigFileUsed(); f != "" {
		if _, err := os.Stat(f); err == nil {
			loaded, err := config.LoadYAMLConfig(f)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}

	overrideString(&cfg.Server.Host, "server.host")
	overrideInt(&cfg.Server.Port, "server.port")
	overrideString(&cfg.Server.MaxBodySize, "server.max_body_size")
	overrideString(&cfg.Auth.JWTSecret, "auth.jwt_secret")
	overrideString(&cfg.Auth.JWTExpiry, "auth.jwt_expiry")
	overrideString(&cfg.Drivers.Default, "drivers.default")
	if viper.IsSet("drivers.demo") {
		cfg.Drivers.Demo = viper.GetBool("drivers.demo")
	}
	if viper.IsSet("drivers.sqlite") {
		cfg.Drivers.SQLite = viper.GetBool("drivers.sqlite")
	}
	overrideString(&cfg.Generator.Project, "generator.project")
	overrideString(&cfg.MCP.Transport, "mcp.transport")
	overrideString(&cfg.MCP.Addr, "mcp.addr")
	overrideString(&cfg.Logging.Level, "logging.level")
	overrideString(&cfg.Logging.Format, "logging.format")
	overrideString(&cfg.DataDir, "data_dir")
	return cfg, nil
}

// overrideString replaces *dst with the viper value for key when one is set.
// Values are env-expanded like the config file itself.
func overrideString(dst *string, key string) {
	if !viper.IsSet(key) {
		return
	}
	if v := os.ExpandEnv(viper.GetString(key)); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if viper.IsSet(key) {
		if v := viper.GetInt(key); v != 0 {
			*dst = v
		}
	}
}

// resolveDataDir returns the data directory from --data-dir, data_dir in
// config or GENNETTA_DATA_DIR, or ~/.gennetta as fallback.
func resolveDataDir(cfg *config.YAMLConfig) string {
	if dataDir != "" {
		return dataDir
	}
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".gennetta")
}

// openSessionStore opens the SQLite session store under the data directory.
func openSessionStore(cfg *config.YAMLConfig) (*config.Store, error) {
	store, err := config.NewStore(resolveDataDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	return store, nil
}

// newRegistry creates a provider registry with every supported driver
// registered. The demo driver is added only when drivers.demo is on. On
// network transports sqlite reads server-side files, so it is added there
// only when drivers.sqlite is on.
func newRegistry(cfg *config.YAMLConfig, network bool) *connector.Registry {
	registry := connector.NewRegistry()
	registry.RegisterDriver("mssql", func() connector.Provider { return mssql.New(cfg.Drivers.Connector("mssql")) })
	registry.RegisterDriver("postgres", func() connector.Provider { return postgres.New(cfg.Drivers.Connector("postgres")) })
	registry.RegisterDriver("mysql", func() connector.Provider { return mysql.New(cfg.Drivers.Connector("mysql")) })
	if !network || cfg.Drivers.SQLite {
		registry.RegisterDriver("sqlite", func() connector.Provider { return sqlite.New(cfg.Drivers.Connector("sqlite")) })
	}
	if cfg.Drivers.Demo {
		registry.RegisterDriver(demo.Name, demo.New)
	}
	return registry
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for --json output and the MCP stdio transport.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
