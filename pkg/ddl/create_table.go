// SPDX-License-Identifier: Apache-2.0

package ddl

import (
	pgq "github.com/pganalyze/pg_query_go/v6"

	"github.com/scia-dev/scia/pkg/schema"
)

// applyCreateStmt registers or replaces a table in ts, per spec.md §4.2:
// `CREATE TABLE [db.]sch.tbl (col type [NOT NULL] [, ...])`. Missing schema
// defaults to schema.DefaultSchema; names are upper-cased in storage.
func applyCreateStmt(ts *tableSet, stmt *pgq.CreateStmt) {
	rel := stmt.GetRelation()
	if rel == nil {
		return
	}

	schemaName := rel.GetSchemaname()
	if schemaName == "" {
		schemaName = schema.DefaultSchema
	}

	var columns []schema.Column
	for _, elt := range stmt.GetTableElts() {
		col, ok := elt.Node.(*pgq.Node_ColumnDef)
		if !ok {
			continue
		}
		columns = append(columns, convertColumnDef(schemaName, rel.GetRelname(), col.ColumnDef, len(columns)+1))
	}

	table := schema.Table{
		SchemaName: schemaName,
		TableName:  rel.GetRelname(),
		Columns:    columns,
	}
	if rel.GetCatalogname() != "" {
		table.DatabaseName = nullableString(rel.GetCatalogname())
	}

	ts.put(table.Normalize())
}

// convertColumnDef converts a single column definition. NOT NULL and
// PRIMARY KEY make the column non-nullable and NULL makes it nullable;
// other constraints (unique, check, foreign key) carry no weight in the
// schema model and are ignored.
func convertColumnDef(schemaName, tableName string, col *pgq.ColumnDef, ordinal int) schema.Column {
	notNull := false
	for _, c := range col.GetConstraints() {
		switch c.GetConstraint().GetContype() {
		case pgq.ConstrType_CONSTR_NOTNULL, pgq.ConstrType_CONSTR_PRIMARY:
			notNull = true
		case pgq.ConstrType_CONSTR_NULL:
			notNull = false
		}
	}

	return schema.Column{
		SchemaName:      schemaName,
		TableName:       tableName,
		ColumnName:      col.GetColname(),
		DataType:        convertTypeName(col.GetTypeName()),
		IsNullable:      !notNull,
		OrdinalPosition: ordinal,
	}
}
