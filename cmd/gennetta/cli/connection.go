package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// connFlags are shared by every command that analyzes a database.
type connFlags struct {
	conn           string
	driver         string
	promptPassword bool
	timeout        time.Duration
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.conn, "conn", "c", "", "Connection string (or GENNETTA_CONNECTION_STRING)")
	cmd.Flags().StringVarP(&f.driver, "driver", "d", "", "Database driver (default: drivers.default from config)")
	cmd.Flags().BoolVar(&f.promptPassword, "prompt-password", false, "Prompt for the password instead of putting it in the connection string")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "Schema analysis timeout")
}

// connectionString resolves the raw descriptor, appending a prompted
// password when requested.
func (f *connFlags) connectionString() (string, error) {
	raw := f.conn
	if raw == "" {
		raw = viper.GetString("connection_string")
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("a connection string is required: pass --conn or set GENNETTA_CONNECTION_STRING")
	}
	if !f.promptPassword {
		return raw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return withPassword(raw, string(pw))
}

// withPassword appends a Password segment to raw.
func withPassword(raw, password string) (string, error) {
	if strings.Contains(password, ";") {
		return "", fmt.Errorf("passwords containing ';' cannot be used in a connection string")
	}
	raw = strings.TrimRight(strings.TrimSpace(raw), ";")
	return raw + ";Password=" + password + ";", nil
}

// analyze runs the schema analysis for the resolved driver and descriptor.
func (f *connFlags) analyze(ctx context.Context, cfg *config.YAMLConfig) (*model.SchemaSnapshot, connector.Descriptor, error) {
	raw, err := f.connectionString()
	if err != nil {
		return nil, connector.Descriptor{}, err
	}
	driver := f.driver
	if driver == "" {
		driver = cfg.Drivers.Default
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	return newRegistry(cfg, false).Analyze(ctx, driver, raw)
}
