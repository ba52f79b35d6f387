// Package demo provides a schema provider that returns a fixed, fabricated
// storefront schema. Snapshots it produces are flagged Demo so they are never
// mistaken for live introspection.
package demo

import (
	"context"
	"time"

	"github.com/gennetta/gennetta/internal/connector"
	"github.com/gennetta/gennetta/internal/model"
)

// Name is the driver name the demo provider registers under.
const Name = "demo"

// Provider fabricates a schema without touching the network.
type Provider struct {
	now func() time.Time
}

// New creates a demo provider.
func New() connector.Provider {
	return &Provider{now: time.Now}
}

func (p *Provider) Name() string { return Name }

// Live reports false.
func (p *Provider) Live() bool { return false }

// Analyze validates d like a live provider would, then returns the fixed
// table set. The database name defaults to "Demo".
func (p *Provider) Analyze(ctx context.Context, d connector.Descriptor) (*model.SchemaSnapshot, error) {
	if err := d.Require(connector.FieldServer); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	database := d.Database
	if database == "" {
		database = "Demo"
	}
	return &model.SchemaSnapshot{
		Driver:     Name,
		Database:   database,
		Demo:       true,
		CapturedAt: p.now().UTC(),
		Tables:     Tables(),
	}, nil
}

func pk(name, typ string) model.ColumnDefinition {
	return model.ColumnDefinition{Name: name, SourceType: typ, IsPrimaryKey: true}
}

func col(name, typ string) model.ColumnDefinition {
	return model.ColumnDefinition{Name: name, SourceType: typ}
}

func nullable(name, typ string) model.ColumnDefinition {
	return model.ColumnDefinition{Name: name, SourceType: typ, Nullable: true}
}

// Tables returns a fresh copy of the fabricated schema.
func Tables() []model.TableDefinition {
	return []model.TableDefinition{
		{Name: "Customers", Columns: []model.ColumnDefinition{
			pk("CustomerId", "int"),
			col("FirstName", "nvarchar(50)"),
			col("LastName", "nvarchar(50)"),
			col("Email", "nvarchar(255)"),
			nullable("Phone", "nvarchar(20)"),
			col("CreatedAt", "datetime2"),
		}},
		{Name: "Products", Columns: []model.ColumnDefinition{
			pk("ProductId", "int"),
			col("Name", "nvarchar(100)"),
			nullable("Description", "nvarchar(max)"),
			col("Price", "decimal(18,2)"),
			col("Stock", "int"),
			col("IsActive", "bit"),
		}},
		{Name: "Orders", Columns: []model.ColumnDefinition{
			pk("OrderId", "int"),
			col("CustomerId", "int"),
			col("OrderDate", "datetime2"),
			col("Total", "money"),
			nullable("ShippedAt", "datetime2"),
		}},
		{Name: "OrderItems", Columns: []model.ColumnDefinition{
			pk("OrderItemId", "bigint"),
			col("OrderId", "int"),
			col("ProductId", "int"),
			col("Quantity", "int"),
			col("UnitPrice", "decimal(18,2)"),
		}},
		{Name: "Users", Columns: []model.ColumnDefinition{
			pk("Id", "int"),
			col("Email", "nvarchar(255)"),
			col("PasswordHash", "varbinary(64)"),
			col("ExternalId", "uniqueidentifier"),
			nullable("LastLoginAt", "datetime"),
		}},
	}
}
