package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// DefaultSchema is the attached database enumerated when none is configured.
const DefaultSchema = "main"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// columnsQuery reads declared columns through the pragma_table_info
// table-valued function. A pk value above zero marks a primary key member.
const columnsQuery = `SELECT
		name AS column_name,
		type AS data_type,
		CASE WHEN "notnull" = 0 AND pk = 0 THEN 'YES' ELSE 'NO' END AS is_nullable,
		CASE WHEN pk > 0 THEN 1 ELSE 0 END AS is_primary_key
	FROM pragma_table_info(?, ?)
	ORDER BY cid`

// Provider introspects SQLite database files. The descriptor's Data Source
// (Server) is the file path.
type Provider struct {
	schemaName string
	root       string
	qb         squirrel.StatementBuilderType
}

// New creates a SQLite provider.
func New(cfg connector.Config) connector.Provider {
	schema := cfg.SchemaName
	if schema == "" {
		schema = DefaultSchema
	}
	return &Provider{
		schemaName: schema,
		root:       cfg.Root,
		qb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Name returns the driver identifier for SQLite.
func (p *Provider) Name() string { return "sqlite" }

// Live reports true.
func (p *Provider) Live() bool { return true }

// Analyze opens the file named by d.Server. A missing file is reported as a
// ConnectionError rather than silently created.
func (p *Provider) Analyze(ctx context.Context, d connector.Descriptor) (*model.SchemaSnapshot, error) {
	if d.Server == "" {
		return nil, &connector.ValidationError{Message: "connection string is missing Data Source"}
	}
	path := d.Server
	if path != MemoryPath {
		var err error
		if path, err = p.resolve(path); err != nil {
			return nil, err
		}
		if _, err := os.Stat(path); err != nil {
			return nil, connector.NewConnectionError(p.Name(), d, err)
		}
	}

	database := d.Database
	if database == "" {
		database = path
	}
	return connector.Introspect(ctx, connector.Target{
		Provider:   p.Name(),
		SQLDriver:  "sqlite",
		DSN:        path,
		Database:   database,
		Descriptor: d,
	}, p)
}

// resolve applies the configured root. Paths escaping the root are
// rejected before the filesystem is touched.
func (p *Provider) resolve(path string) (string, error) {
	if p.root == "" {
		return path, nil
	}
	root, err := filepath.Abs(p.root)
	if err != nil {
		return "", fmt.Errorf("sqlite root: %w", err)
	}
	rel := path
	if filepath.IsAbs(path) {
		if rel, err = filepath.Rel(root, filepath.Clean(path)); err != nil {
			rel = ""
		}
	}
	if !filepath.IsLocal(rel) {
		return "", &connector.ValidationError{Message: "Data Source must be a file inside the configured sqlite root"}
	}
	return filepath.Join(root, rel), nil
}

// quoteIdentifier wraps a name in double quotes, escaping embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// TablesQuery lists user tables of the configured schema, excluding
// SQLite's internal tables.
func (p *Provider) TablesQuery() (string, []interface{}, error) {
	return p.qb.
		Select("name").
		From(fmt.Sprintf("%s.sqlite_master", quoteIdentifier(p.schemaName))).
		Where(squirrel.Eq{"type": "table"}).
		Where(squirrel.NotLike{"name": "sqlite_%"}).
		OrderBy("name").
		ToSql()
}

// ColumnsQuery lists one table's columns in declaration order.
func (p *Provider) ColumnsQuery(table string) (string, []interface{}, error) {
	return columnsQuery, []interface{}{table, p.schemaName}, nil
}
