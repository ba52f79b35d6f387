package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gennetta/gennetta/internal/model"
)

// Catalog builds the metadata queries of one SQL dialect.
type Catalog interface {
	// TablesQuery enumerates base table names in the provider's schema.
	TablesQuery() (string, []interface{}, error)

	// ColumnsQuery lists one table's columns joined with primary key
	// membership, ordered by ordinal position.
	ColumnsQuery(table string) (string, []interface{}, error)
}

// ColumnRow is the common result shape of every dialect's ColumnsQuery.
// Dialects may omit the optional columns.
type ColumnRow struct {
	Name       string  `db:"column_name"`
	DataType   string  `db:"data_type"`
	FullType   *string `db:"full_type"`
	CharLength *int64  `db:"char_length"`
	Precision  *int64  `db:"numeric_precision"`
	Scale      *int64  `db:"numeric_scale"`
	IsNullable string  `db:"is_nullable"`
	PrimaryKey int     `db:"is_primary_key"`
}

// sizedTypes carry their character or byte length in the source type.
var sizedTypes = map[string]bool{
	"char":              true,
	"nchar":             true,
	"varchar":           true,
	"nvarchar":          true,
	"binary":            true,
	"varbinary":         true,
	"character":         true,
	"character varying": true,
}

// SourceType renders the column's declared type, e.g. "nvarchar(50)",
// "nvarchar(max)" or "decimal(18,2)".
func (r ColumnRow) SourceType() string {
	if r.FullType != nil && *r.FullType != "" {
		return *r.FullType
	}
	dt := strings.ToLower(r.DataType)
	switch {
	case (dt == "decimal" || dt == "numeric") && r.Precision != nil:
		scale := int64(0)
		if r.Scale != nil {
			scale = *r.Scale
		}
		return fmt.Sprintf("%s(%d,%d)", r.DataType, *r.Precision, scale)
	case sizedTypes[dt] && r.CharLength != nil:
		if *r.CharLength < 0 {
			return r.DataType + "(max)"
		}
		return fmt.Sprintf("%s(%d)", r.DataType, *r.CharLength)
	}
	return r.DataType
}

// Definition converts the row into its model form.
func (r ColumnRow) Definition() model.ColumnDefinition {
	return model.ColumnDefinition{
		Name:         r.Name,
		SourceType:   r.SourceType(),
		Nullable:     strings.EqualFold(r.IsNullable, "YES"),
		IsPrimaryKey: r.PrimaryKey != 0,
	}
}

// Target identifies the database a live provider introspects.
type Target struct {
	Provider   string // registered provider name, used in errors
	SQLDriver  string // database/sql driver name
	DSN        string
	Database   string
	Descriptor Descriptor
}

// Introspect opens one transient connection to t, enumerates base tables,
// then issues one column query per table. The connection is closed before
// returning on every path.
func Introspect(ctx context.Context, t Target, cat Catalog) (*model.SchemaSnapshot, error) {
	db, err := sqlx.ConnectContext(ctx, t.SQLDriver, t.DSN)
	if err != nil {
		return nil, NewConnectionError(t.Provider, t.Descriptor, err)
	}
	defer db.Close()

	tables, err := ReadTables(ctx, db, t, cat)
	if err != nil {
		return nil, err
	}

	return &model.SchemaSnapshot{
		Driver:     t.Provider,
		Database:   t.Database,
		CapturedAt: time.Now().UTC(),
		Tables:     tables,
	}, nil
}

// ReadTables runs cat's queries sequentially on db.
func ReadTables(ctx context.Context, db *sqlx.DB, t Target, cat Catalog) ([]model.TableDefinition, error) {
	query, args, err := cat.TablesQuery()
	if err != nil {
		return nil, fmt.Errorf("build tables query: %w", err)
	}

	var names []string
	if err := db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, NewQueryError(t.Provider, "list tables", t.Descriptor, err)
	}

	tables := make([]model.TableDefinition, 0, len(names))
	for _, name := range names {
		query, args, err := cat.ColumnsQuery(name)
		if err != nil {
			return nil, fmt.Errorf("build columns query for %q: %w", name, err)
		}

		var rows []ColumnRow
		if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, NewQueryError(t.Provider, fmt.Sprintf("list columns of %q", name), t.Descriptor, err)
		}

		columns := make([]model.ColumnDefinition, 0, len(rows))
		for _, row := range rows {
			columns = append(columns, row.Definition())
		}
		tables = append(tables, model.TableDefinition{Name: name, Columns: columns})
	}
	return tables, nil
}
