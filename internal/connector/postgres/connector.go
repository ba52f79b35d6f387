package postgres

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// DefaultSchema is enumerated when no schema is configured.
const DefaultSchema = "public"

const pkColumns = `(SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY') pk
	ON pk.table_schema = c.table_schema
		AND pk.table_name = c.table_name
		AND pk.column_name = c.column_name`

// Provider introspects PostgreSQL databases through pgx's database/sql driver.
type Provider struct {
	schemaName string
	sslMode    string
	qb         squirrel.StatementBuilderType
}

// New creates a PostgreSQL provider.
func New(cfg connector.Config) connector.Provider {
	schema := cfg.SchemaName
	if schema == "" {
		schema = DefaultSchema
	}
	return &Provider{
		schemaName: schema,
		sslMode:    cfg.SSLMode,
		qb:         squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Name returns the driver identifier for PostgreSQL.
func (p *Provider) Name() string { return "postgres" }

// Live reports true.
func (p *Provider) Live() bool { return true }

// Analyze validates d, connects once and reads the schema's base tables.
func (p *Provider) Analyze(ctx context.Context, d connector.Descriptor) (*model.SchemaSnapshot, error) {
	if err := d.Require(connector.FieldServer, connector.FieldDatabase); err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(d, p.sslMode)
	if err != nil {
		return nil, err
	}
	return connector.Introspect(ctx, connector.Target{
		Provider:   p.Name(),
		SQLDriver:  "pgx",
		DSN:        dsn,
		Database:   d.Database,
		Descriptor: d,
	}, p)
}

// BuildDSN renders d as a postgres:// URL. An empty sslMode leaves the
// driver default in place.
func BuildDSN(d connector.Descriptor, sslMode string) (string, error) {
	host, port, err := d.Endpoint()
	if err != nil {
		return "", err
	}
	if port > 0 {
		host += ":" + strconv.Itoa(port)
	}

	u := &url.URL{Scheme: "postgres", Host: host, Path: "/" + d.Database}
	if d.Username != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	}
	q := url.Values{}
	q.Set("application_name", "gennetta")
	if sslMode != "" {
		q.Set("sslmode", sslMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// TablesQuery lists base tables in the configured schema.
func (p *Provider) TablesQuery() (string, []interface{}, error) {
	return p.qb.
		Select("table_name").
		From("information_schema.tables").
		Where(squirrel.Eq{"table_schema": p.schemaName, "table_type": "BASE TABLE"}).
		OrderBy("table_name").
		ToSql()
}

// ColumnsQuery lists one table's columns with primary key membership.
func (p *Provider) ColumnsQuery(table string) (string, []interface{}, error) {
	return p.qb.
		Select(
			"c.column_name::text AS column_name",
			"c.data_type::text AS data_type",
			"c.character_maximum_length::bigint AS char_length",
			"c.numeric_precision::bigint AS numeric_precision",
			"c.numeric_scale::bigint AS numeric_scale",
			"c.is_nullable::text AS is_nullable",
			"CASE WHEN pk.column_name IS NULL THEN 0 ELSE 1 END AS is_primary_key",
		).
		From("information_schema.columns c").
		LeftJoin(pkColumns).
		Where(squirrel.Eq{"c.table_schema": p.schemaName, "c.table_name": table}).
		OrderBy("c.ordinal_position").
		ToSql()
}
