// SPDX-License-Identifier: Apache-2.0

package ddl

import (
	"fmt"

	pgq "github.com/pganalyze/pg_query_go/v6"

	"github.com/scia-dev/scia/pkg/schema"
)

// applyAlterTableStmt applies the subset of ALTER TABLE productions listed
// in spec.md §4.2. Unsupported commands are reported back as a warning and
// skipped; the table is left as it was accumulated so far. A pure-ALTER
// script with no matching base table is itself a no-op warning, per §4.2
// ("unresolved ALTERs are skipped").
func applyAlterTableStmt(ts *tableSet, stmt *pgq.AlterTableStmt) []string {
	if stmt.GetObjtype() != pgq.ObjectType_OBJECT_TABLE {
		return nil
	}

	rel := stmt.GetRelation()
	table, ok := ts.lookup(rel.GetSchemaname(), rel.GetRelname())
	if !ok {
		return []string{fmt.Sprintf("ALTER TABLE %s: no base table found, statement skipped", rel.GetRelname())}
	}

	var warnings []string
	for _, cmd := range stmt.GetCmds() {
		alterCmd := cmd.GetAlterTableCmd()
		if alterCmd == nil {
			continue
		}

		var warn string
		switch alterCmd.GetSubtype() {
		case pgq.AlterTableType_AT_AddColumn:
			table, warn = applyAddColumn(table, alterCmd)
		case pgq.AlterTableType_AT_DropColumn:
			table, warn = applyDropColumn(table, alterCmd)
		case pgq.AlterTableType_AT_AlterColumnType:
			table, warn = applyAlterColumnType(table, alterCmd)
		case pgq.AlterTableType_AT_SetNotNull:
			table = applySetNotNull(table, alterCmd.GetName(), true)
		case pgq.AlterTableType_AT_DropNotNull:
			table = applySetNotNull(table, alterCmd.GetName(), false)
		default:
			warn = fmt.Sprintf("ALTER TABLE %s: unsupported command, statement skipped", rel.GetRelname())
		}
		if warn != "" {
			warnings = append(warnings, warn)
		}
	}

	ts.put(table.Normalize())
	return warnings
}

func applyAddColumn(table schema.Table, cmd *pgq.AlterTableCmd) (schema.Table, string) {
	node, ok := cmd.GetDef().GetNode().(*pgq.Node_ColumnDef)
	if !ok {
		return table, fmt.Sprintf("ALTER TABLE %s ADD COLUMN: malformed column definition, skipped", table.TableName)
	}
	col := convertColumnDef(table.SchemaName, table.TableName, node.ColumnDef, len(table.Columns)+1)
	table.Columns = append(table.Columns, col)
	return table, ""
}

func applyDropColumn(table schema.Table, cmd *pgq.AlterTableCmd) (schema.Table, string) {
	name := upper(cmd.GetName())
	cols := make([]schema.Column, 0, len(table.Columns))
	found := false
	for _, c := range table.Columns {
		if upper(c.ColumnName) == name {
			found = true
			continue
		}
		cols = append(cols, c)
	}
	table.Columns = cols
	if !found {
		return table, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s: column not found, skipped", table.TableName, cmd.GetName())
	}
	return table, ""
}

func applyAlterColumnType(table schema.Table, cmd *pgq.AlterTableCmd) (schema.Table, string) {
	node, ok := cmd.GetDef().GetNode().(*pgq.Node_ColumnDef)
	if !ok {
		return table, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN: malformed type definition, skipped", table.TableName)
	}
	newType := convertTypeName(node.ColumnDef.GetTypeName())

	name := upper(cmd.GetName())
	for i, c := range table.Columns {
		if upper(c.ColumnName) == name {
			table.Columns[i].DataType = upper(newType)
			return table, ""
		}
	}
	return table, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s: column not found, skipped", table.TableName, cmd.GetName())
}

func applySetNotNull(table schema.Table, column string, notNull bool) schema.Table {
	name := upper(column)
	for i, c := range table.Columns {
		if upper(c.ColumnName) == name {
			table.Columns[i].IsNullable = !notNull
			return table
		}
	}
	return table
}

// applyRenameStmt handles `ALTER TABLE ... RENAME COLUMN old TO new`, the
// only RenameStmt shape spec.md §4.2 names.
func applyRenameStmt(ts *tableSet, stmt *pgq.RenameStmt) []string {
	if stmt.GetRelationType() != pgq.ObjectType_OBJECT_TABLE || stmt.GetRenameType() != pgq.ObjectType_OBJECT_COLUMN {
		return nil
	}

	rel := stmt.GetRelation()
	table, ok := ts.lookup(rel.GetSchemaname(), rel.GetRelname())
	if !ok {
		return []string{fmt.Sprintf("ALTER TABLE %s RENAME COLUMN: no base table found, statement skipped", rel.GetRelname())}
	}

	old := upper(stmt.GetSubname())
	for i, c := range table.Columns {
		if upper(c.ColumnName) == old {
			table.Columns[i].ColumnName = upper(stmt.GetNewname())
			ts.put(table)
			return nil
		}
	}

	ts.put(table)
	return []string{fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s: column not found, skipped", rel.GetRelname(), stmt.GetSubname())}
}
