// SPDX-License-Identifier: Apache-2.0

// Package sqlsignal implements the SQL signal extractor (C4): it pulls
// referenced tables, columns, JOIN keys and GROUP BY keys out of arbitrary
// queries by walking the same pg_query_go AST the ddl package parses DDL
// with, grounded on the tree-walking idiom shown by the pack's pg-lock-check
// analyzer (recursive, node-type-keyed walks, never reflection).
package sqlsignal

// JoinKey is one two-column equality found in a JOIN ... ON clause.
type JoinKey struct {
	Left  string
	Right string
}

// Metadata is the extracted signal set for a single SQL statement, all
// case-normalized upper per spec.md §4.3.
type Metadata struct {
	Tables      map[string]struct{}
	Columns     map[string]struct{}
	GroupByCols map[string]struct{}
	JoinKeys    []JoinKey
}

func newMetadata() *Metadata {
	return &Metadata{
		Tables:      map[string]struct{}{},
		Columns:     map[string]struct{}{},
		GroupByCols: map[string]struct{}{},
	}
}

// HasColumn reports whether col (any case) appears in m.Columns.
func (m *Metadata) HasColumn(col string) bool {
	_, ok := m.Columns[upper(col)]
	return ok
}

// HasGroupByColumn reports whether col (any case) appears in m.GroupByCols.
func (m *Metadata) HasGroupByColumn(col string) bool {
	_, ok := m.GroupByCols[upper(col)]
	return ok
}

// HasJoinKeyColumn reports whether col (any case) appears on either side of
// any extracted join key.
func (m *Metadata) HasJoinKeyColumn(col string) bool {
	col = upper(col)
	for _, jk := range m.JoinKeys {
		if jk.Left == col || jk.Right == col {
			return true
		}
	}
	return false
}
