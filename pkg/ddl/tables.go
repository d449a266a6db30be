// SPDX-License-Identifier: Apache-2.0

package ddl

import "github.com/scia-dev/scia/pkg/schema"

// tableSet accumulates tables discovered while walking a statement list,
// preserving first-insertion order (CREATE TABLE on an existing key replaces
// in place rather than moving it to the end).
type tableSet struct {
	order []schema.TableKey
	byKey map[schema.TableKey]schema.Table
}

func newTableSet(base []schema.Table) *tableSet {
	ts := &tableSet{byKey: make(map[schema.TableKey]schema.Table, len(base))}
	for _, t := range base {
		ts.put(t.Normalize())
	}
	return ts
}

func (ts *tableSet) put(t schema.Table) {
	key := t.Key()
	if _, exists := ts.byKey[key]; !exists {
		ts.order = append(ts.order, key)
	}
	ts.byKey[key] = t
}

func (ts *tableSet) get(key schema.TableKey) (schema.Table, bool) {
	t, ok := ts.byKey[key]
	return t, ok
}

// lookup finds the table a bare or schema-qualified name refers to, defaulting
// to schema.DefaultSchema when no schema is given, mirroring the DDL parser's
// own "missing schema defaults to PUBLIC" rule.
func (ts *tableSet) lookup(schemaName, tableName string) (schema.Table, bool) {
	if schemaName == "" {
		schemaName = schema.DefaultSchema
	}
	return ts.get(schema.TableKey{Schema: upper(schemaName), Name: upper(tableName)})
}

func (ts *tableSet) tables() []schema.Table {
	out := make([]schema.Table, 0, len(ts.order))
	for _, key := range ts.order {
		out = append(out, ts.byKey[key])
	}
	return out
}
