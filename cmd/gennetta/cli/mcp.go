package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	gmcp "github.com/gennetta/gennetta/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes schema analysis and
code generation as tools for AI agents. Supports stdio (default) and HTTP transports.

In stdio mode, the MCP server communicates over stdin/stdout using JSON-RPC,
suitable for clients that launch it as a subprocess.

In HTTP mode, the server listens on mcp.addr using the Streamable HTTP transport.`,
		Example: `  gennetta mcp                                # stdio mode
  gennetta mcp --transport http --addr :8081  # Streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(timeout)
		},
	}

	cmd.Flags().String("transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().String("addr", ":8081", "HTTP listen address (only used with --transport http)")
	cmd.Flags().DurationVar(&timeout, "analyze-timeout", 30*time.Second, "Per-call schema analysis timeout")

	viper.BindPFlag("mcp.transport", cmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runMCP(analyzeTimeout time.Duration) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	store, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	mcpSrv := gmcp.NewMCPServer(newRegistry(cfg, cfg.MCP.Transport == "http"), store, gmcp.Options{
		Version:        versionString(),
		DefaultDriver:  cfg.Drivers.Default,
		DefaultProject: cfg.Generator.Project,
		AnalyzeTimeout: analyzeTimeout,
	}, logger)

	switch cfg.MCP.Transport {
	case "stdio":
		return mcpSrv.ServeStdio()
	case "http":
		return mcpSrv.ServeHTTP(cfg.MCP.Addr)
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", cfg.MCP.Transport)
	}
}
