package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gennetta/gennetta/internal/config"
	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/connector/demo"
	"github.com/gennetta/gennetta/internal/model"
	"github.com/gennetta/gennetta/internal/wizard"
)

const demoConn = "Server=demo;Database=Shop;User Id=sa;Password=secret;"

func newTestServer(t *testing.T) (*MCPServer, *config.Store) {
	t.Helper()
	store, err := config.NewStore("")
	if err != nil {
		t.Fatalf("config.NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := connector.NewRegistry()
	registry.RegisterDriver(demo.Name, demo.New)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s := NewMCPServer(registry, store, Options{
		Version:        "test",
		DefaultDriver:  demo.Name,
		DefaultProject: "GeneratedApp",
	}, logger)
	return s, store
}

func decodeResult(t *testing.T, res *mcp.CallToolResult, v interface{}) {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), v); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestListDrivers(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleListDrivers(context.Background(), callRequest("gennetta_list_drivers", nil))
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Drivers       []model.DriverInfo `json:"drivers"`
		DefaultDriver string             `json:"default_driver"`
	}
	decodeResult(t, res, &out)
	if len(out.Drivers) != 1 || out.Drivers[0].Name != "demo" || out.Drivers[0].Live {
		t.Errorf("drivers = %+v", out.Drivers)
	}
	if out.DefaultDriver != "demo" {
		t.Errorf("default_driver = %q", out.DefaultDriver)
	}
}

func TestAnalyzeSchema(t *testing.T) {
	s, _ := newTestServer(t)

	res, err := s.handleAnalyzeSchema(context.Background(), callRequest("gennetta_analyze_schema", map[string]interface{}{
		"connection_string": demoConn,
	}))
	if err != nil {
		t.Fatal(err)
	}
	text := resultText(t, res)
	if strings.Contains(text, "secret") {
		t.Error("result leaks the password")
	}

	var out struct {
		Driver           string                  `json:"driver"`
		Demo             bool                    `json:"demo"`
		ConnectionString string                  `json:"connection_string"`
		Tables           []model.TableDefinition `json:"tables"`
	}
	decodeResult(t, res, &out)
	if out.Driver != "demo" || !out.Demo || len(out.Tables) != 5 {
		t.Errorf("result = %+v", out)
	}
	if !strings.Contains(out.ConnectionString, "Password=***") {
		t.Errorf("connection_string = %q", out.ConnectionString)
	}
}

func TestAnalyzeSchemaSummary(t *testing.T) {
	s, _ := newTestServer(t)

	res, _ := s.handleAnalyzeSchema(context.Background(), callRequest("gennetta_analyze_schema", map[string]interface{}{
		"connection_string": demoConn,
		"summary":           true,
	}))
	var out struct {
		Tables []struct {
			Name       string   `json:"name"`
			Columns    int      `json:"columns"`
			PrimaryKey []string `json:"primary_key"`
		} `json:"tables"`
	}
	decodeResult(t, res, &out)
	if len(out.Tables) != 5 {
		t.Fatalf("tables = %d", len(out.Tables))
	}
	first := out.Tables[0]
	if first.Name != "Customers" || first.Columns != 6 || len(first.PrimaryKey) != 1 || first.PrimaryKey[0] != "CustomerId" {
		t.Errorf("first table = %+v", first)
	}
}

func TestAnalyzeSchemaErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing connection string", map[string]interface{}{}, "connection_string"},
		{"malformed", map[string]interface{}{"connection_string": "garbage"}, "malformed"},
		{"unknown driver", map[string]interface{}{"connection_string": demoConn, "driver": "oracle"}, "unsupported driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleAnalyzeSchema(context.Background(), callRequest("gennetta_analyze_schema", tt.args))
			if err != nil {
				t.Fatalf("protocol error: %v", err)
			}
			if !res.IsError {
				t.Fatal("IsError = false, want true")
			}
			if text := resultText(t, res); !strings.Contains(text, tt.want) {
				t.Errorf("text %q does not mention %q", text, tt.want)
			}
		})
	}
}

func TestDescribeTable(t *testing.T) {
	s, _ := newTestServer(t)

	res, _ := s.handleDescribeTable(context.Background(), callRequest("gennetta_describe_table", map[string]interface{}{
		"connection_string": demoConn,
		"table":             "Orders",
	}))
	var out struct {
		Name    string `json:"name"`
		Columns []struct {
			Name       string `json:"name"`
			CSharpType string `json:"csharp_type"`
			PrimaryKey bool   `json:"primary_key"`
		} `json:"columns"`
	}
	decodeResult(t, res, &out)
	if out.Name != "Orders" || len(out.Columns) != 5 {
		t.Fatalf("result = %+v", out)
	}
	want := map[string]string{
		"OrderId":   "int",
		"Total":     "decimal",
		"ShippedAt": "DateTime?",
	}
	for _, c := range out.Columns {
		if w, ok := want[c.Name]; ok && c.CSharpType != w {
			t.Errorf("%s csharp_type = %q, want %q", c.Name, c.CSharpType, w)
		}
	}
	if !out.Columns[0].PrimaryKey {
		t.Error("OrderId should be the primary key")
	}

	res, _ = s.handleDescribeTable(context.Background(), callRequest("gennetta_describe_table", map[string]interface{}{
		"connection_string": demoConn,
		"table":             "orders",
	}))
	if !res.IsError || !strings.Contains(resultText(t, res), "Available tables") {
		t.Errorf("lookup is case-sensitive and should list tables: %s", resultText(t, res))
	}
}

func TestGenerate(t *testing.T) {
	s, _ := newTestServer(t)

	res, _ := s.handleGenerate(context.Background(), callRequest("gennetta_generate", map[string]interface{}{
		"connection_string": demoConn,
		"tables":            []interface{}{"Users"},
		"project":           "Shop",
	}))
	var out struct {
		Project string                `json:"project"`
		Files   []model.GeneratedFile `json:"files"`
	}
	decodeResult(t, res, &out)
	if out.Project != "Shop" {
		t.Errorf("project = %q", out.Project)
	}
	if len(out.Files) != 11+8 {
		t.Errorf("files = %d, want %d", len(out.Files), 11+8)
	}
	if out.Files[0].Path != "Models/Users.cs" {
		t.Errorf("first file = %q", out.Files[0].Path)
	}
	for _, f := range out.Files {
		if strings.Contains(f.Content, "secret") {
			t.Errorf("%s leaks the password", f.Path)
		}
	}
}

func TestGenerateFilters(t *testing.T) {
	s, _ := newTestServer(t)

	res, _ := s.handleGenerate(context.Background(), callRequest("gennetta_generate", map[string]interface{}{
		"connection_string": demoConn,
		"tables":            []interface{}{"Users", "Orders"},
		"paths":             []interface{}{"Program.cs", "Models/Orders.cs"},
		"list_only":         true,
	}))
	var out struct {
		Project string `json:"project"`
		Files   []struct {
			Path string `json:"path"`
			Size int    `json:"size"`
		} `json:"files"`
	}
	decodeResult(t, res, &out)
	if out.Project != "GeneratedApp" {
		t.Errorf("project = %q, want default", out.Project)
	}
	if len(out.Files) != 2 || out.Files[0].Path != "Models/Orders.cs" || out.Files[1].Path != "Program.cs" {
		t.Fatalf("files = %+v", out.Files)
	}
	if out.Files[0].Size == 0 {
		t.Error("size should be reported")
	}
}

func TestGenerateErrors(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"no tables", map[string]interface{}{"connection_string": demoConn}, "tables"},
		{"unknown table", map[string]interface{}{"connection_string": demoConn, "tables": []interface{}{"Ghosts"}}, "Available tables"},
		{"bad descriptor", map[string]interface{}{"connection_string": "Database=x", "tables": []interface{}{"Users"}}, "Server"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleGenerate(context.Background(), callRequest("gennetta_generate", tt.args))
			if err != nil {
				t.Fatalf("protocol error: %v", err)
			}
			if !res.IsError || !strings.Contains(resultText(t, res), tt.want) {
				t.Errorf("result = %s", resultText(t, res))
			}
		})
	}
}

func TestDriversResource(t *testing.T) {
	s, _ := newTestServer(t)

	var req mcp.ReadResourceRequest
	req.Params.URI = driversURI
	contents, err := s.handleDriversResource(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, `"ef_targets"`) || !strings.Contains(text, `"demo"`) {
		t.Errorf("drivers resource = %s", text)
	}
}

func TestSessionResource(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	wz := wizard.New()
	sess := wz.Session()
	if err := store.CreateSession(ctx, &sess); err != nil {
		t.Fatal(err)
	}

	var req mcp.ReadResourceRequest
	req.Params.URI = sessionURIPrefix + sess.ID
	contents, err := s.handleSessionResource(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	var got model.Session
	if err := json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != sess.ID || got.Step != "connect" {
		t.Errorf("session = %+v", got)
	}

	req.Params.URI = sessionURIPrefix + "missing"
	if _, err := s.handleSessionResource(ctx, req); err == nil {
		t.Error("missing session should fail")
	}
	req.Params.URI = "gennetta://other"
	if _, err := s.handleSessionResource(ctx, req); err == nil {
		t.Error("foreign URI should fail")
	}
}
