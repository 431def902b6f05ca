package entities

import "fmt"

// SchemaName identifies a schema within a catalog
// All segments are case-sensitive and fully specified
type SchemaName struct {
	Catalog string // Catalog name (e.g., "alice-catalog")
	Schema  string // Schema name (e.g., "schema")
}

// String returns a string representation of the schema name
// Format: catalog.schema
func (s SchemaName) String() string {
	return fmt.Sprintf("%s.%s", s.Catalog, s.Schema)
}

// Validate checks if the schema name is fully specified
func (s SchemaName) Validate() error {
	if s.Catalog == "" {
		return fmt.Errorf("catalog name is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema name is required")
	}
	return nil
}

// SchemaTableName identifies a table relative to a catalog, used by bulk
// filtering where the catalog is fixed for the whole candidate set
type SchemaTableName struct {
	Schema string
	Table  string
}

// In qualifies the table with a catalog
func (s SchemaTableName) In(catalog string) TableName {
	return TableName{Catalog: catalog, Schema: s.Schema, Table: s.Table}
}

// String returns a string representation of the schema-scoped table name
// Format: schema.table
func (s SchemaTableName) String() string {
	return fmt.Sprintf("%s.%s", s.Schema, s.Table)
}

// TableName identifies a table or view within a schema
// Views share this shape; view-specific rules apply when present
type TableName struct {
	Catalog string // Catalog name (e.g., "alice-catalog")
	Schema  string // Schema name (e.g., "schema")
	Table   string // Table or view name (e.g., "table")
}

// SchemaName returns the schema portion of the table name
func (t TableName) SchemaName() SchemaName {
	return SchemaName{Catalog: t.Catalog, Schema: t.Schema}
}

// String returns a string representation of the table name
// Format: catalog.schema.table
func (t TableName) String() string {
	return fmt.Sprintf("%s.%s.%s", t.Catalog, t.Schema, t.Table)
}

// Validate checks if the table name is fully specified
func (t TableName) Validate() error {
	if t.Catalog == "" {
		return fmt.Errorf("catalog name is required")
	}
	if t.Schema == "" {
		return fmt.Errorf("schema name is required")
	}
	if t.Table == "" {
		return fmt.Errorf("table name is required")
	}
	return nil
}
