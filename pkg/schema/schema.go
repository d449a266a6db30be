// SPDX-License-Identifier: Apache-2.0

// Package schema holds the normalized, dialect-neutral representation of a
// relational schema: databases, schemas, tables and columns. Values here are
// immutable once constructed by pkg/ddl, pkg/warehouse or a JSON snapshot
// decoder; nothing in this package mutates a Column or Table in place.
package schema

import (
	"strings"

	"github.com/oapi-codegen/nullable"
)

// Column is a single column definition, normalized to upper-case identifiers
// and a dialect-neutral data type token.
type Column struct {
	DatabaseName    nullable.Nullable[string] `json:"database_name,omitempty"`
	SchemaName      string                    `json:"schema_name"`
	TableName       string                    `json:"table_name"`
	ColumnName      string                    `json:"column_name"`
	DataType        string                    `json:"data_type"`
	IsNullable      bool                      `json:"is_nullable"`
	OrdinalPosition int                       `json:"ordinal_position"`
}

// Table is a named, ordered sequence of columns within a schema.
type Table struct {
	DatabaseName nullable.Nullable[string] `json:"database_name,omitempty"`
	SchemaName   string                    `json:"schema_name"`
	TableName    string                    `json:"table_name"`
	Columns      []Column                  `json:"columns"`
}

// DefaultSchema is substituted for a missing schema qualifier, matching the
// DDL parser's "missing schema defaults to PUBLIC" rule.
const DefaultSchema = "PUBLIC"

// DefaultDataType is substituted when a column definition carries no type.
const DefaultDataType = "VARCHAR"

// TableKey is the case-insensitive identity of a table.
type TableKey struct {
	Schema string
	Name   string
}

// Key returns the case-insensitive identity of the table: (schema, name),
// both upper-cased.
func (t Table) Key() TableKey {
	return TableKey{Schema: strings.ToUpper(t.SchemaName), Name: strings.ToUpper(t.TableName)}
}

// ColumnKey is the case-insensitive identity of a column.
type ColumnKey struct {
	Schema string
	Table  string
	Name   string
}

// Key returns the case-insensitive identity of the column: (schema, table,
// name), all upper-cased.
func (c Column) Key() ColumnKey {
	return ColumnKey{
		Schema: strings.ToUpper(c.SchemaName),
		Table:  strings.ToUpper(c.TableName),
		Name:   strings.ToUpper(c.ColumnName),
	}
}

// GetColumn returns the column with the given name (case-insensitive), or
// false if it does not exist.
func (t Table) GetColumn(name string) (Column, bool) {
	upper := strings.ToUpper(name)
	for _, c := range t.Columns {
		if strings.ToUpper(c.ColumnName) == upper {
			return c, true
		}
	}
	return Column{}, false
}

// FullyQualifiedName renders DATABASE.SCHEMA.TABLE (or SCHEMA.TABLE if there
// is no database), upper-cased.
func (t Table) FullyQualifiedName() string {
	schemaName := strings.ToUpper(t.SchemaName)
	tableName := strings.ToUpper(t.TableName)
	if db := DatabaseNameOf(t.DatabaseName); db != "" {
		return strings.ToUpper(db) + "." + schemaName + "." + tableName
	}
	return schemaName + "." + tableName
}

// Normalize returns a copy of the table with upper-cased schema/table/column
// names and a default schema/data-type/ordinal applied where missing. It does
// not mutate the receiver.
func (t Table) Normalize() Table {
	out := t
	if out.SchemaName == "" {
		out.SchemaName = DefaultSchema
	}
	out.SchemaName = strings.ToUpper(out.SchemaName)
	out.TableName = strings.ToUpper(out.TableName)

	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.normalize(out.SchemaName, out.TableName, i+1)
	}
	out.Columns = cols
	return out
}

func (c Column) normalize(schemaName, tableName string, ordinal int) Column {
	out := c
	out.SchemaName = schemaName
	out.TableName = tableName
	out.ColumnName = strings.ToUpper(out.ColumnName)
	if out.DataType == "" {
		out.DataType = DefaultDataType
	}
	out.DataType = strings.ToUpper(out.DataType)
	if out.OrdinalPosition == 0 {
		out.OrdinalPosition = ordinal
	}
	return out
}

// DatabaseNameOf returns the underlying value of an optional database-name
// field, or "" if it was never set or was explicitly set to null. The
// nullable.Nullable[T] zero value is "unspecified", so this is always safe to
// call on a Column/Table built without a database qualifier.
func DatabaseNameOf(n nullable.Nullable[string]) string {
	v, err := n.Get()
	if err != nil {
		return ""
	}
	return v
}

// ByKey indexes a slice of tables by their case-insensitive Key.
func ByKey(tables []Table) map[TableKey]Table {
	out := make(map[TableKey]Table, len(tables))
	for _, t := range tables {
		out[t.Key()] = t
	}
	return out
}
