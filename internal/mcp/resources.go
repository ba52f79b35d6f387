package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gennetta/gennetta/internal/generator"
)

const (
	driversURI       = "gennetta://drivers"
	sessionURIPrefix = "gennetta://sessions/"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {

	srv.AddResource(
		mcp.NewResource(
			driversURI,
			"Schema Drivers",
			mcp.WithResourceDescription(
				"Database drivers GenNetta can analyze and the Entity Framework "+
					"providers generated projects can target.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleDriversResource,
	)

	if s.store == nil {
		return
	}
	srv.AddResourceTemplate(
		mcp.NewResourceTemplate(
			sessionURIPrefix+"{id}",
			"Wizard Session",
			mcp.WithTemplateDescription(
				"A wizard session started over HTTP: its step, masked connection "+
					"string, analyzed tables and current selection.",
			),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleSessionResource,
	)
}

// handleDriversResource returns the registered drivers and EF targets.
func (s *MCPServer) handleDriversResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	b, err := json.MarshalIndent(map[string]interface{}{
		"drivers":        s.registry.Drivers(),
		"default_driver": s.opts.DefaultDriver,
		"ef_targets":     generator.SupportedTargets(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal drivers: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      driversURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

// handleSessionResource returns one stored wizard session.
func (s *MCPServer) handleSessionResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	uri := request.Params.URI
	id := strings.TrimPrefix(uri, sessionURIPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("invalid session URI %q: expected %s{id}", uri, sessionURIPrefix)
	}

	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", id, err)
	}

	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
