// Package generator turns a selection of tables from a schema snapshot into
// the source files of a scaffolded ASP.NET Core MVC application: entity
// models, repositories, services, API and UI controllers, CRUD views, and the
// shared project scaffolding that registers every selected table.
//
// Generation is a pure function of its inputs. The same snapshot, selection
// and options always produce byte-identical output.
package generator

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// DefaultProject is the project name and root namespace used when none is given.
const DefaultProject = "GeneratedApp"

// unnamedType replaces a table name with no letters or digits.
const unnamedType = "UnnamedTable"

// ErrNoTables is returned when the selection is empty.
var ErrNoTables = errors.New("no tables selected")

// LookupError reports a selected table that is absent from the snapshot.
type LookupError struct {
	Table string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("table %q not found in schema", e.Table)
}

// CollisionError reports distinct names that map to the same C# identifier.
// Table is empty when two tables collide and set when two columns of that
// table collide.
type CollisionError struct {
	Identifier string
	Names      []string
	Table      string
}

func (e *CollisionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("columns %q of table %q all map to identifier %s", e.Names, e.Table, e.Identifier)
	}
	return fmt.Sprintf("tables %q all map to identifier %s", e.Names, e.Identifier)
}

// Options controls project-level naming.
type Options struct {
	// Project is the project file name and root namespace. Dotted names are
	// kept as nested namespaces.
	Project string

	// ConnectionString is written to appsettings.json. It is re-masked before
	// rendering, so passing a raw descriptor never leaks its password.
	ConnectionString string

	// Driver selects the Entity Framework provider package. It defaults to
	// the snapshot's driver.
	Driver string
}

// Bundle is the ordered set of files produced by one generation run.
type Bundle struct {
	Project string
	Files   []model.GeneratedFile
}

// Map returns the bundle as a path to content mapping.
func (b *Bundle) Map() map[string]string {
	m := make(map[string]string, len(b.Files))
	for _, f := range b.Files {
		m[f.Path] = f.Content
	}
	return m
}

// Paths returns file paths in generation order.
func (b *Bundle) Paths() []string {
	paths := make([]string, len(b.Files))
	for i, f := range b.Files {
		paths[i] = f.Path
	}
	return paths
}

// Size returns the total content length in bytes.
func (b *Bundle) Size() int {
	n := 0
	for _, f := range b.Files {
		n += len(f.Content)
	}
	return n
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{"csString": csString, "razor": razor}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// tableArtifacts are rendered once per selected table. The path pattern
// receives the table's type name.
var tableArtifacts = []struct {
	path     string
	template string
}{
	{"Models/%s.cs", "model.cs.tmpl"},
	{"Repositories/I%sRepository.cs", "repository_interface.cs.tmpl"},
	{"Repositories/%sRepository.cs", "repository.cs.tmpl"},
	{"Controllers/Api/%sApiController.cs", "api_controller.cs.tmpl"},
	{"Controllers/%sController.cs", "controller.cs.tmpl"},
	{"Views/%s/Index.cshtml", "view_index.cshtml.tmpl"},
	{"Views/%s/Details.cshtml", "view_details.cshtml.tmpl"},
	{"Views/%s/Create.cshtml", "view_create.cshtml.tmpl"},
	{"Views/%s/Edit.cshtml", "view_edit.cshtml.tmpl"},
	{"Views/%s/Delete.cshtml", "view_delete.cshtml.tmpl"},
	{"Services/%sService.cs", "service.cs.tmpl"},
}

// sharedArtifacts enumerate every selected table and are rendered once.
var sharedArtifacts = []struct {
	path     string
	template string
}{
	{"Program.cs", "program.cs.tmpl"},
	{"Data/AppDbContext.cs", "dbcontext.cs.tmpl"},
	{"Views/Shared/_Layout.cshtml", "layout.cshtml.tmpl"},
	{"Views/_ViewImports.cshtml", "view_imports.cshtml.tmpl"},
	{"Views/_ViewStart.cshtml", "view_start.cshtml.tmpl"},
}

// Generate renders the bundle for the selected tables of snap. Duplicate
// names in selected are collapsed to their first occurrence; output follows
// selection order, per-table files first, then shared files.
func Generate(snap *model.SchemaSnapshot, selected []string, opts Options) (*Bundle, error) {
	if len(selected) == 0 {
		return nil, ErrNoTables
	}

	proj, err := newProjectView(snap, opts)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(selected))
	owners := make(map[string]string, len(selected))
	for _, name := range selected {
		if seen[name] {
			continue
		}
		seen[name] = true

		def, ok := snap.Table(name)
		if !ok {
			return nil, &LookupError{Table: name}
		}
		tv, err := newTableView(proj.Namespace, def)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(tv.Type)
		if prev, dup := owners[key]; dup {
			return nil, &CollisionError{Identifier: tv.Type, Names: []string{prev, name}}
		}
		owners[key] = name
		proj.Tables = append(proj.Tables, tv)
	}

	b := &Bundle{Project: proj.Namespace}
	for _, tv := range proj.Tables {
		for _, a := range tableArtifacts {
			content, err := render(a.template, tv)
			if err != nil {
				return nil, err
			}
			b.Files = append(b.Files, model.GeneratedFile{Path: fmt.Sprintf(a.path, tv.Type), Content: content})
		}
	}

	csproj, err := render("csproj.tmpl", proj)
	if err != nil {
		return nil, err
	}
	b.Files = append(b.Files, model.GeneratedFile{Path: proj.Namespace + ".csproj", Content: csproj})

	for _, a := range sharedArtifacts {
		content, err := render(a.template, proj)
		if err != nil {
			return nil, err
		}
		b.Files = append(b.Files, model.GeneratedFile{Path: a.path, Content: content})
	}

	settings, err := renderAppSettings(proj.ConnectionString)
	if err != nil {
		return nil, err
	}
	b.Files = append(b.Files, model.GeneratedFile{Path: "appsettings.json", Content: settings})

	spec, err := renderOpenAPI(proj)
	if err != nil {
		return nil, err
	}
	b.Files = append(b.Files, model.GeneratedFile{Path: "openapi.json", Content: spec})

	return b, nil
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// efProvider describes the Entity Framework Core provider for one driver.
type efProvider struct {
	Package string
	Version string
	Use     string
}

var efProviders = map[string]efProvider{
	"mssql":    {"Microsoft.EntityFrameworkCore.SqlServer", "8.0.8", "UseSqlServer(connectionString)"},
	"postgres": {"Npgsql.EntityFrameworkCore.PostgreSQL", "8.0.4", "UseNpgsql(connectionString)"},
	"mysql":    {"Pomelo.EntityFrameworkCore.MySql", "8.0.2", "UseMySql(connectionString, ServerVersion.AutoDetect(connectionString))"},
	"sqlite":   {"Microsoft.EntityFrameworkCore.Sqlite", "8.0.8", "UseSqlite(connectionString)"},
}

// SupportedTargets lists drivers with a dedicated Entity Framework provider.
func SupportedTargets() []string {
	out := make([]string, 0, len(efProviders))
	for k := range efProviders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type projectView struct {
	Namespace        string
	Driver           string
	EF               efProvider
	ConnectionString string
	Tables           []tableView
}

// Home is the controller the default route points at.
func (p projectView) Home() string {
	if len(p.Tables) == 0 {
		return "Home"
	}
	return p.Tables[0].Type
}

func newProjectView(snap *model.SchemaSnapshot, opts Options) (projectView, error) {
	pv := projectView{Namespace: namespace(opts.Project)}

	pv.Driver = opts.Driver
	if pv.Driver == "" && snap != nil {
		pv.Driver = snap.Driver
	}
	ef, ok := efProviders[pv.Driver]
	if !ok {
		ef = efProviders["mssql"]
	}
	pv.EF = ef

	if opts.ConnectionString != "" {
		d, err := connector.ParseDescriptor(opts.ConnectionString)
		if err != nil {
			return pv, fmt.Errorf("connection string: %w", err)
		}
		pv.ConnectionString = d.Masked()
	}
	return pv, nil
}

// namespace sanitizes a project name into a (possibly dotted) namespace.
func namespace(project string) string {
	var parts []string
	for _, p := range strings.Split(project, ".") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		parts = append(parts, Identifier(p))
	}
	if len(parts) == 0 {
		return DefaultProject
	}
	return strings.Join(parts, ".")
}

type fieldView struct {
	Column      string
	Name        string
	Type        string
	BaseType    string
	Kind        Kind
	Key         bool
	Required    bool
	Nullable    bool
	Input       string
	Attributes  []string
	Initializer string
}

type tableView struct {
	Namespace    string
	Name         string
	Type         string
	Local        string
	Route        string
	Key          fieldView
	Fields       []fieldView
	CompositeKey []string
}

// Set is the DbSet property name on AppDbContext.
func (t tableView) Set() string { return t.Type }

// Editable returns the fields shown on edit forms; the key is posted hidden.
func (t tableView) Editable() []fieldView {
	out := make([]fieldView, 0, len(t.Fields))
	for _, f := range t.Fields {
		if f.Name != t.Key.Name {
			out = append(out, f)
		}
	}
	return out
}

func newTableView(ns string, def model.TableDefinition) (tableView, error) {
	tv := tableView{
		Namespace: ns,
		Name:      def.Name,
		Type:      Identifier(def.Name),
	}
	if tv.Type == escape("") {
		tv.Type = unnamedType
	}
	tv.Local = localName(tv.Type)
	tv.Route = routeName(tv.Type)

	pk := def.PrimaryKey()
	owners := make(map[string]string, len(def.Columns))
	for _, col := range def.Columns {
		f := newFieldView(col)
		if f.Name == tv.Type {
			f.Name += "Value"
		}
		if prev, dup := owners[f.Name]; dup {
			return tv, &CollisionError{Identifier: f.Name, Names: []string{prev, col.Name}, Table: def.Name}
		}
		owners[f.Name] = col.Name
		tv.Fields = append(tv.Fields, f)
	}

	keyIdx := -1
	switch {
	case len(pk) > 0:
		for i, col := range def.Columns {
			if col.Name == pk[0] {
				keyIdx = i
				break
			}
		}
	case len(tv.Fields) > 0:
		keyIdx = 0
	}

	if keyIdx < 0 {
		synthetic := fieldView{Column: "Id", Name: "Id", Type: "int", BaseType: "int", Kind: Int32, Input: Int32.inputType()}
		tv.Fields = append(tv.Fields, synthetic)
		keyIdx = len(tv.Fields) - 1
	}

	if len(pk) > 1 {
		for i, col := range def.Columns {
			if col.IsPrimaryKey {
				tv.CompositeKey = append(tv.CompositeKey, tv.Fields[i].Name)
			}
		}
	} else {
		tv.Fields[keyIdx].Key = true
	}

	for i := range tv.Fields {
		tv.Fields[i].Attributes = attributes(tv.Fields[i])
	}
	tv.Key = tv.Fields[keyIdx]
	return tv, nil
}

func newFieldView(col model.ColumnDefinition) fieldView {
	kind := MapSourceType(col.SourceType)
	f := fieldView{
		Column:   col.Name,
		Name:     Identifier(col.Name),
		Type:     kind.CSharpType(col.Nullable),
		BaseType: kind.CSharp(),
		Kind:     kind,
		Nullable: col.Nullable,
		Required: kind == String && !col.Nullable,
		Input:    kind.inputType(),
	}
	if !col.Nullable {
		switch kind {
		case String:
			f.Initializer = "string.Empty"
		case Bytes:
			f.Initializer = "Array.Empty<byte>()"
		}
	}
	return f
}

func attributes(f fieldView) []string {
	var attrs []string
	if f.Key {
		attrs = append(attrs, "[Key]")
	}
	if f.Required {
		attrs = append(attrs, "[Required]")
	}
	if f.Name != f.Column {
		attrs = append(attrs, fmt.Sprintf(`[Column("%s")]`, csString(f.Column)))
	}
	return attrs
}

// razor escapes text placed in Razor markup: HTML special characters and the
// transition character '@'.
func razor(s string) string {
	return strings.ReplaceAll(template.HTMLEscapeString(s), "@", "@@")
}
