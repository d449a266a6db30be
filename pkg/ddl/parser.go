// SPDX-License-Identifier: Apache-2.0

// Package ddl implements the DDL parser (C3): it converts CREATE/ALTER
// statement text into the normalized schema.Table model, via the real
// PostgreSQL grammar (pg_query_go) after running any dialect-specific text
// preprocessors.
package ddl

import (
	"fmt"

	pgq "github.com/pganalyze/pg_query_go/v6"

	"github.com/scia-dev/scia/pkg/schema"
)

// Result is the accumulated outcome of parsing a DDL script: whatever
// tables could be built, plus warnings for every statement that was
// skipped. Parse never returns a fatal error (spec.md §4.2: "never
// aborts").
type Result struct {
	Tables   []schema.Table
	Warnings []string
}

// Parse converts sql into a set of tables, starting from base (a JSON-side
// schema an ALTER-only script applies on top of, or nil). dialect selects
// which preprocessors run before the PostgreSQL grammar sees the text.
func Parse(sql string, base []schema.Table, dialect Dialect) Result {
	ts := newTableSet(base)

	prepared := preprocess(dialect, sql)

	tree, err := pgq.Parse(prepared)
	if err != nil {
		return Result{
			Tables:   ts.tables(),
			Warnings: []string{ParseError{Dialect: string(dialect), Cause: err}.Error()},
		}
	}

	var warnings []string
	for _, stmt := range tree.GetStmts() {
		warnings = append(warnings, applyStatement(ts, stmt)...)
	}

	return Result{Tables: ts.tables(), Warnings: warnings}
}

// applyStatement dispatches a single top-level statement, recovering from
// any panic raised while walking a malformed or unexpected AST shape so one
// bad statement can never abort the whole script.
func applyStatement(ts *tableSet, stmt *pgq.RawStmt) (warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			warnings = append(warnings, fmt.Sprintf("ddl statement panicked while parsing, skipped: %v", r))
		}
	}()

	node := stmt.GetStmt().GetNode()
	switch n := node.(type) {
	case *pgq.Node_CreateStmt:
		applyCreateStmt(ts, n.CreateStmt)
		return nil
	case *pgq.Node_AlterTableStmt:
		return applyAlterTableStmt(ts, n.AlterTableStmt)
	case *pgq.Node_RenameStmt:
		return applyRenameStmt(ts, n.RenameStmt)
	default:
		return []string{fmt.Sprintf("unsupported DDL statement of type %T, skipped", node)}
	}
}
