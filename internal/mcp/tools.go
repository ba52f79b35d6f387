package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/generator"
	"github.com/gennetta/gennetta/internal/model"
)

// registerTools registers all GenNetta MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Discovery tools -----

	srv.AddTool(
		mcp.NewTool("gennetta_list_drivers",
			mcp.WithDescription(
				"List the database drivers GenNetta can analyze. Drivers with live=false "+
					"return a fixed sample schema and never open a connection. Use this first "+
					"to pick the driver argument for the other tools.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListDrivers,
	)

	srv.AddTool(
		mcp.NewTool("gennetta_analyze_schema",
			mcp.WithDescription(
				"Connect to a database and list its base tables with their columns, "+
					"source types, nullability and primary keys. The connection string uses "+
					"'Key=Value;' segments (Server, Database, User Id, Password). The password "+
					"is masked in the result.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			connectionStringParam(),
			mcp.WithString("driver",
				mcp.Description("Database driver (see gennetta_list_drivers). Defaults to the server's configured driver."),
			),
			mcp.WithBoolean("summary",
				mcp.Description("Return only table names and column counts instead of full column details."),
			),
		),
		s.handleAnalyzeSchema,
	)

	srv.AddTool(
		mcp.NewTool("gennetta_describe_table",
			mcp.WithDescription(
				"Analyze a database and return the columns of one table together with "+
					"the C# type each column maps to in generated code.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			connectionStringParam(),
			mcp.WithString("driver",
				mcp.Description("Database driver. Defaults to the server's configured driver."),
			),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Exact table name as returned by gennetta_analyze_schema"),
			),
		),
		s.handleDescribeTable,
	)

	// ----- Generation tool -----

	srv.AddTool(
		mcp.NewTool("gennetta_generate",
			mcp.WithDescription(
				"Generate an ASP.NET Core MVC + Web API project for the selected tables: "+
					"entity models, repositories, services, API and MVC controllers, Razor "+
					"views, DbContext, Program.cs, appsettings.json and an OpenAPI document. "+
					"Returns the files as path/content pairs. Nothing is written to disk.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			connectionStringParam(),
			mcp.WithString("driver",
				mcp.Description("Database driver. Defaults to the server's configured driver."),
			),
			mcp.WithArray("tables",
				mcp.Required(),
				mcp.Description("Table names to generate code for, in the order they should appear"),
				mcp.WithStringItems(),
			),
			mcp.WithString("project",
				mcp.Description("Project name and root namespace (default: server's configured project)"),
			),
			mcp.WithArray("paths",
				mcp.Description("Return only these file paths. Omit for the full bundle."),
				mcp.WithStringItems(),
			),
			mcp.WithBoolean("list_only",
				mcp.Description("Return only file paths and sizes, without content"),
			),
		),
		s.handleGenerate,
	)
}

func connectionStringParam() mcp.ToolOption {
	return mcp.WithString("connection_string",
		mcp.Required(),
		mcp.Description("Connection string, e.g. \"Server=db,1433;Database=Shop;User Id=sa;Password=...;\""),
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

// handleListDrivers returns the registered schema providers.
func (s *MCPServer) handleListDrivers(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	return successJSON(map[string]interface{}{
		"drivers":        s.registry.Drivers(),
		"default_driver": s.opts.DefaultDriver,
	})
}

// analyze runs a schema analysis bounded by the configured timeout.
func (s *MCPServer) analyze(ctx context.Context, request mcp.CallToolRequest) (*model.SchemaSnapshot, connector.Descriptor, error) {
	raw, err := requireString(request, "connection_string")
	if err != nil {
		return nil, connector.Descriptor{}, &connector.ValidationError{Message: err.Error()}
	}
	driver := strings.TrimSpace(optionalString(request, "driver", s.opts.DefaultDriver))

	if s.opts.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AnalyzeTimeout)
		defer cancel()
	}

	snap, d, err := s.registry.Analyze(ctx, driver, raw)
	if err != nil {
		s.logger.Warn("mcp schema analysis failed", "driver", driver, "error", err)
		return nil, d, err
	}
	return snap, d, nil
}

// handleAnalyzeSchema lists the base tables behind a connection string.
func (s *MCPServer) handleAnalyzeSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	snap, d, err := s.analyze(ctx, request)
	if err != nil {
		return toolError("Schema analysis failed: %v", err)
	}

	if request.GetBool("summary", false) {
		type tableSummary struct {
			Name       string   `json:"name"`
			Columns    int      `json:"columns"`
			PrimaryKey []string `json:"primary_key"`
		}
		tables := make([]tableSummary, len(snap.Tables))
		for i, t := range snap.Tables {
			tables[i] = tableSummary{Name: t.Name, Columns: len(t.Columns), PrimaryKey: t.PrimaryKey()}
		}
		return successJSON(map[string]interface{}{
			"driver":            snap.Driver,
			"demo":              snap.Demo,
			"connection_string": d.Masked(),
			"tables":            tables,
		})
	}

	return successJSON(map[string]interface{}{
		"driver":            snap.Driver,
		"demo":              snap.Demo,
		"connection_string": d.Masked(),
		"tables":            snap.Tables,
	})
}

// handleDescribeTable returns one table's columns with their C# mapping.
func (s *MCPServer) handleDescribeTable(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	tableName, err := requireString(request, "table")
	if err != nil {
		return toolError("%v", err)
	}

	snap, _, err := s.analyze(ctx, request)
	if err != nil {
		return toolError("Schema analysis failed: %v", err)
	}

	table, ok := snap.Table(tableName)
	if !ok {
		// Provide available table names to help the LLM self-correct.
		return toolError("Table %q not found.\n\nAvailable tables: %v", tableName, snap.TableNames())
	}

	type columnInfo struct {
		Name       string `json:"name"`
		SourceType string `json:"source_type"`
		CSharpType string `json:"csharp_type"`
		Nullable   bool   `json:"nullable"`
		PrimaryKey bool   `json:"primary_key"`
	}
	cols := make([]columnInfo, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = columnInfo{
			Name:       c.Name,
			SourceType: c.SourceType,
			CSharpType: generator.MapSourceType(c.SourceType).CSharpType(c.Nullable),
			Nullable:   c.Nullable,
			PrimaryKey: c.IsPrimaryKey,
		}
	}
	return successJSON(map[string]interface{}{
		"name":    table.Name,
		"columns": cols,
	})
}

// handleGenerate renders the project bundle for the selected tables.
func (s *MCPServer) handleGenerate(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	tables := optionalStringSlice(request, "tables")
	if len(tables) == 0 {
		return toolError("missing required parameter %q: provide at least one table name", "tables")
	}

	snap, d, err := s.analyze(ctx, request)
	if err != nil {
		return toolError("Schema analysis failed: %v", err)
	}

	bundle, err := generator.Generate(snap, tables, generator.Options{
		Project:          optionalString(request, "project", s.opts.DefaultProject),
		ConnectionString: d.Masked(),
	})
	if err != nil {
		return toolError("Generation failed: %v\n\nAvailable tables: %v", err, snap.TableNames())
	}

	files := bundle.Files
	if only := optionalStringSlice(request, "paths"); len(only) > 0 {
		want := make(map[string]bool, len(only))
		for _, p := range only {
			want[p] = true
		}
		filtered := make([]model.GeneratedFile, 0, len(only))
		for _, f := range files {
			if want[f.Path] {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}

	if request.GetBool("list_only", false) {
		type fileInfo struct {
			Path string `json:"path"`
			Size int    `json:"size"`
		}
		list := make([]fileInfo, len(files))
		for i, f := range files {
			list[i] = fileInfo{Path: f.Path, Size: len(f.Content)}
		}
		return successJSON(map[string]interface{}{
			"project": bundle.Project,
			"files":   list,
		})
	}

	return successJSON(map[string]interface{}{
		"project": bundle.Project,
		"files":   files,
	})
}
