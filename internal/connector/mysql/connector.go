package mysql

import (
	"context"
	"net"
	"strconv"

	"github.com/Masterminds/squirrel"
	driver "github.com/go-sql-driver/mysql"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// DefaultPort is used when the server value carries no port.
const DefaultPort = 3306

// Provider introspects MySQL and MariaDB databases. The schema defaults to
// the descriptor's database.
type Provider struct {
	schemaName string
	qb         squirrel.StatementBuilderType
}

// New creates a MySQL provider.
func New(cfg connector.Config) connector.Provider {
	return &Provider{
		schemaName: cfg.SchemaName,
		qb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// Name returns the driver identifier for MySQL.
func (p *Provider) Name() string { return "mysql" }

// Live reports true.
func (p *Provider) Live() bool { return true }

// Analyze validates d, connects once and reads the schema's base tables.
func (p *Provider) Analyze(ctx context.Context, d connector.Descriptor) (*model.SchemaSnapshot, error) {
	if err := d.Require(connector.FieldServer, connector.FieldDatabase); err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(d)
	if err != nil {
		return nil, err
	}
	return connector.Introspect(ctx, connector.Target{
		Provider:   p.Name(),
		SQLDriver:  "mysql",
		DSN:        dsn,
		Database:   d.Database,
		Descriptor: d,
	}, p.forSchema(d.Database))
}

// forSchema returns a copy bound to schema unless one was configured.
func (p *Provider) forSchema(schema string) *Provider {
	if p.schemaName != "" {
		return p
	}
	cp := *p
	cp.schemaName = schema
	return &cp
}

// BuildDSN renders d in go-sql-driver/mysql's DSN format.
func BuildDSN(d connector.Descriptor) (string, error) {
	host, port, err := d.Endpoint()
	if err != nil {
		return "", err
	}
	if port == 0 {
		port = DefaultPort
	}

	cfg := driver.NewConfig()
	cfg.User = d.Username
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = d.Database
	return cfg.FormatDSN(), nil
}

// TablesQuery lists base tables in the bound schema.
func (p *Provider) TablesQuery() (string, []interface{}, error) {
	return p.qb.
		Select("TABLE_NAME AS table_name").
		From("information_schema.TABLES").
		Where(squirrel.Eq{"TABLE_SCHEMA": p.schemaName, "TABLE_TYPE": "BASE TABLE"}).
		OrderBy("TABLE_NAME").
		ToSql()
}

// ColumnsQuery lists one table's columns. COLUMN_TYPE already carries the
// length or precision suffix, and COLUMN_KEY marks primary key members.
func (p *Provider) ColumnsQuery(table string) (string, []interface{}, error) {
	return p.qb.
		Select(
			"COLUMN_NAME AS column_name",
			"DATA_TYPE AS data_type",
			"COLUMN_TYPE AS full_type",
			"IS_NULLABLE AS is_nullable",
			"CASE WHEN COLUMN_KEY = 'PRI' THEN 1 ELSE 0 END AS is_primary_key",
		).
		From("information_schema.COLUMNS").
		Where(squirrel.Eq{"TABLE_SCHEMA": p.schemaName, "TABLE_NAME": table}).
		OrderBy("ORDINAL_POSITION").
		ToSql()
}
