// SPDX-License-Identifier: Apache-2.0

package diff

import (
	"sort"
	"strings"

	"github.com/scia-dev/scia/pkg/schema"
)

// Diff compares before and after table lists and returns the ordered list
// of structural changes, per spec.md §4.4's three-level algorithm. Output
// order is stable for a given input pair but not semantically meaningful to
// the rule engine (spec.md §3).
func Diff(before, after []schema.Table) []Change {
	beforeBySchema := groupBySchema(before)
	afterBySchema := groupBySchema(after)

	var changes []Change

	allSchemas := unionKeys(beforeBySchema, afterBySchema)
	for schemaName := range allSchemas {
		beforeTables, inBefore := beforeBySchema[schemaName]
		afterTables, inAfter := afterBySchema[schemaName]

		switch {
		case inBefore && !inAfter:
			changes = append(changes, Change{
				ObjectType: ObjectSchema,
				ChangeType: ChangeRemoved,
				Schema:     schemaName,
			})
		case !inBefore && inAfter:
			changes = append(changes, Change{
				ObjectType: ObjectSchema,
				ChangeType: ChangeAdded,
				Schema:     schemaName,
			})
		default:
			changes = append(changes, diffTables(schemaName, beforeTables, afterTables)...)
		}
	}

	sort.Slice(changes, func(i, j int) bool { return less(changes[i], changes[j]) })
	return changes
}

func diffTables(schemaName string, before, after []schema.Table) []Change {
	beforeByName := indexTables(before)
	afterByName := indexTables(after)

	var changes []Change
	for name := range unionKeys(beforeByName, afterByName) {
		beforeTable, inBefore := beforeByName[name]
		afterTable, inAfter := afterByName[name]

		switch {
		case inBefore && !inAfter:
			changes = append(changes, Change{
				ObjectType: ObjectTable,
				ChangeType: ChangeRemoved,
				Schema:     schemaName,
				Table:      name,
			})
		case !inBefore && inAfter:
			changes = append(changes, Change{
				ObjectType: ObjectTable,
				ChangeType: ChangeAdded,
				Schema:     schemaName,
				Table:      name,
			})
		default:
			changes = append(changes, diffColumns(schemaName, name, beforeTable, afterTable)...)
		}
	}
	return changes
}

func diffColumns(schemaName, tableName string, before, after schema.Table) []Change {
	beforeByName := indexColumns(before.Columns)
	afterByName := indexColumns(after.Columns)

	var changes []Change
	for name := range unionKeys(beforeByName, afterByName) {
		beforeCol, inBefore := beforeByName[name]
		afterCol, inAfter := afterByName[name]

		switch {
		case inBefore && !inAfter:
			changes = append(changes, Change{
				ObjectType: ObjectColumn,
				ChangeType: ChangeRemoved,
				Schema:     schemaName,
				Table:      tableName,
				Column:     name,
				Before:     beforeCol,
			})
		case !inBefore && inAfter:
			changes = append(changes, Change{
				ObjectType: ObjectColumn,
				ChangeType: ChangeAdded,
				Schema:     schemaName,
				Table:      tableName,
				Column:     name,
				After:      afterCol,
			})
		default:
			// Type change takes precedence over a nullability change on the
			// same column (spec.md §4.4, §9): at most one change per column.
			switch {
			case beforeCol.DataType != afterCol.DataType:
				changes = append(changes, Change{
					ObjectType: ObjectColumn,
					ChangeType: ChangeTypeChanged,
					Schema:     schemaName,
					Table:      tableName,
					Column:     name,
					Before:     beforeCol,
					After:      afterCol,
				})
			case beforeCol.IsNullable != afterCol.IsNullable:
				changes = append(changes, Change{
					ObjectType: ObjectColumn,
					ChangeType: ChangeNullabilityChanged,
					Schema:     schemaName,
					Table:      tableName,
					Column:     name,
					Before:     beforeCol,
					After:      afterCol,
				})
			}
		}
	}
	return changes
}

func groupBySchema(tables []schema.Table) map[string][]schema.Table {
	out := map[string][]schema.Table{}
	for _, t := range tables {
		key := strings.ToUpper(t.SchemaName)
		out[key] = append(out[key], t)
	}
	return out
}

func indexTables(tables []schema.Table) map[string]schema.Table {
	out := make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		out[strings.ToUpper(t.TableName)] = t
	}
	return out
}

func indexColumns(cols []schema.Column) map[string]schema.Column {
	out := make(map[string]schema.Column, len(cols))
	for _, c := range cols {
		out[strings.ToUpper(c.ColumnName)] = c
	}
	return out
}

func unionKeys[T any](a, b map[string]T) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// less orders changes by (schema, table, column, change_type), matching
// spec.md §4.4's stable-ordering requirement.
func less(a, b Change) bool {
	if a.Schema != b.Schema {
		return a.Schema < b.Schema
	}
	if a.Table != b.Table {
		return a.Table < b.Table
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	return a.ChangeType < b.ChangeType
}
