package model

import "time"

// SchemaSnapshot is a point-in-time enumeration of a database's base tables
// and their columns. It is created once per connect and never mutated.
type SchemaSnapshot struct {
	Driver     string            `json:"driver"`
	Database   string            `json:"database,omitempty"`
	Demo       bool              `json:"demo"`
	CapturedAt time.Time         `json:"capturedAt"`
	Tables     []TableDefinition `json:"tables"`
}

// TableDefinition describes a single base table. Columns are ordered by
// ordinal position.
type TableDefinition struct {
	Name    string             `json:"name"`
	Columns []ColumnDefinition `json:"columns"`
}

// ColumnDefinition describes a single column within a table.
type ColumnDefinition struct {
	Name         string `json:"name"`
	SourceType   string `json:"type"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
}

// Table returns the table with the given name, or false if the snapshot has
// no such table. Names are matched exactly.
func (s *SchemaSnapshot) Table(name string) (TableDefinition, bool) {
	if s == nil {
		return TableDefinition{}, false
	}
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDefinition{}, false
}

// TableNames returns the table names in snapshot order.
func (s *SchemaSnapshot) TableNames() []string {
	if s == nil {
		return []string{}
	}
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// PrimaryKey returns the names of the primary key columns in ordinal order.
func (t TableDefinition) PrimaryKey() []string {
	pk := []string{}
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}
