package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
)

// Options configures the tool defaults of an MCPServer.
type Options struct {
	Version        string
	DefaultDriver  string
	DefaultProject string

	// AnalyzeTimeout bounds each schema analysis. Zero means no bound
	// beyond the caller's context.
	AnalyzeTimeout time.Duration
}

// MCPServer wraps the mcp-go server with GenNetta tool and resource
// registrations. It lets AI agents analyze a database schema and generate
// an ASP.NET Core project from it.
type MCPServer struct {
	registry *connector.Registry
	store    *config.Store
	opts     Options
	logger   *slog.Logger
	server   *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with all GenNetta tools and
// resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(registry *connector.Registry, store *config.Store, opts Options, logger *slog.Logger) *MCPServer {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &MCPServer{
		registry: registry,
		store:    store,
		opts:     opts,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"GenNetta",
		opts.Version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode, the integration path for
// clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":8081").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:   boolPtr(true),
		OpenWorldHint:  boolPtr(true),
		IdempotentHint: boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
