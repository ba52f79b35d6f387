package mssql

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Masterminds/squirrel"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// DefaultSchema is enumerated when no schema is configured.
const DefaultSchema = "dbo"

// pkColumns lists primary key members per table. It is joined to
// INFORMATION_SCHEMA.COLUMNS so one query yields columns and PK membership.
const pkColumns = `(SELECT kcu.TABLE_SCHEMA, kcu.TABLE_NAME, kcu.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
			ON tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
			AND tc.TABLE_SCHEMA = kcu.TABLE_SCHEMA
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY') pk
	ON pk.TABLE_SCHEMA = c.TABLE_SCHEMA
		AND pk.TABLE_NAME = c.TABLE_NAME
		AND pk.COLUMN_NAME = c.COLUMN_NAME`

// Provider introspects SQL Server databases.
type Provider struct {
	schemaName string
	qb         squirrel.StatementBuilderType
}

// New creates a SQL Server provider.
func New(cfg connector.Config) connector.Provider {
	schema := cfg.SchemaName
	if schema == "" {
		schema = DefaultSchema
	}
	return &Provider{
		schemaName: schema,
		qb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.AtP),
	}
}

// Name returns the driver identifier for SQL Server.
func (p *Provider) Name() string { return "mssql" }

// Live reports true: the provider queries a real server.
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
		SQLDriver:  "sqlserver",
		DSN:        dsn,
		Database:   d.Database,
		Descriptor: d,
	}, p)
}

// BuildDSN renders d as a sqlserver:// URL understood by go-mssqldb. A named
// instance becomes the URL path; trusted connections omit credentials.
func BuildDSN(d connector.Descriptor) (string, error) {
	host, port, err := d.Endpoint()
	if err != nil {
		return "", err
	}
	if port > 0 {
		host += ":" + strconv.Itoa(port)
	}

	u := &url.URL{Scheme: "sqlserver", Host: host}
	if inst := d.Instance(); inst != "" {
		u.Path = "/" + inst
	}
	if !d.Trusted && d.Username != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	}

	q := url.Values{}
	q.Set("database", d.Database)
	q.Set("app name", "gennetta")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TablesQuery lists base tables in the configured schema.
func (p *Provider) TablesQuery() (string, []interface{}, error) {
	return p.qb.
		Select("TABLE_NAME").
		From("INFORMATION_SCHEMA.TABLES").
		Where(squirrel.Eq{"TABLE_SCHEMA": p.schemaName, "TABLE_TYPE": "BASE TABLE"}).
		OrderBy("TABLE_NAME").
		ToSql()
}

// ColumnsQuery lists one table's columns with primary key membership.
func (p *Provider) ColumnsQuery(table string) (string, []interface{}, error) {
	return p.qb.
		Select(
			"c.COLUMN_NAME AS column_name",
			"c.DATA_TYPE AS data_type",
			"CAST(c.CHARACTER_MAXIMUM_LENGTH AS BIGINT) AS char_length",
			"CAST(c.NUMERIC_PRECISION AS BIGINT) AS numeric_precision",
			"CAST(c.NUMERIC_SCALE AS BIGINT) AS numeric_scale",
			"c.IS_NULLABLE AS is_nullable",
			"CASE WHEN pk.COLUMN_NAME IS NULL THEN 0 ELSE 1 END AS is_primary_key",
		).
		From("INFORMATION_SCHEMA.COLUMNS c").
		LeftJoin(pkColumns).
		Where(squirrel.Eq{"c.TABLE_SCHEMA": p.schemaName, "c.TABLE_NAME": table}).
		OrderBy("c.ORDINAL_POSITION").
		ToSql()
}
