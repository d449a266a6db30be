// SPDX-License-Identifier: Apache-2.0

package sqlsignal

import (
	pgq "github.com/pganalyze/pg_query_go/v6"
)

// Extract parses sql and returns its Metadata. It never raises: a parse
// failure yields (nil, err) so the caller can substitute "no signal for
// this entry" per spec.md §4.3. Unsupported constructs in SQL that parses
// are skipped and contribute nothing to the Metadata.
func Extract(sql string) (*Metadata, error) {
	tree, err := pgq.Parse(sql)
	if err != nil {
		return nil, err
	}

	m := newMetadata()
	for _, stmt := range tree.GetStmts() {
		walk(m, stmt.GetStmt())
	}
	return m, nil
}

// walk recurses through the AST, collecting table and column references
// wherever they occur (FROM, WHERE, JOIN, CTEs, subqueries, set operations),
// and specially handles JoinExpr (for join_keys) and GroupClause (for
// group_by_cols). Every branch is keyed on a concrete node type; there is no
// reflection.
func walk(m *Metadata, node *pgq.Node) {
	if node == nil {
		return
	}

	switch n := node.Node.(type) {
	case *pgq.Node_SelectStmt:
		walkSelect(m, n.SelectStmt)

	case *pgq.Node_RangeVar:
		addTable(m, n.RangeVar)

	case *pgq.Node_RangeSubselect:
		walk(m, n.RangeSubselect.GetSubquery())

	case *pgq.Node_JoinExpr:
		walk(m, n.JoinExpr.GetLarg())
		walk(m, n.JoinExpr.GetRarg())
		extractJoinKey(m, n.JoinExpr.GetQuals())
		walk(m, n.JoinExpr.GetQuals())

	case *pgq.Node_ColumnRef:
		addColumnRef(m, n.ColumnRef)

	case *pgq.Node_AExpr:
		walk(m, n.AExpr.GetLexpr())
		walk(m, n.AExpr.GetRexpr())

	case *pgq.Node_BoolExpr:
		for _, arg := range n.BoolExpr.GetArgs() {
			walk(m, arg)
		}

	case *pgq.Node_ResTarget:
		walk(m, n.ResTarget.GetVal())

	case *pgq.Node_CommonTableExpr:
		walk(m, n.CommonTableExpr.GetCtequery())

	case *pgq.Node_List:
		for _, item := range n.List.GetItems() {
			walk(m, item)
		}

	case *pgq.Node_SubLink:
		walk(m, n.SubLink.GetSubselect())
		walk(m, n.SubLink.GetTestexpr())

	case *pgq.Node_FuncCall:
		for _, arg := range n.FuncCall.GetArgs() {
			walk(m, arg)
		}

	case *pgq.Node_CoalesceExpr:
		for _, arg := range n.CoalesceExpr.GetArgs() {
			walk(m, arg)
		}

	case *pgq.Node_CaseExpr:
		for _, when := range n.CaseExpr.GetArgs() {
			walk(m, when)
		}
		walk(m, n.CaseExpr.GetDefresult())

	case *pgq.Node_CaseWhen:
		walk(m, n.CaseWhen.GetExpr())
		walk(m, n.CaseWhen.GetResult())

	case *pgq.Node_TypeCast:
		walk(m, n.TypeCast.GetArg())

	case *pgq.Node_SortBy:
		walk(m, n.SortBy.GetNode())
	}
}

func walkSelect(m *Metadata, stmt *pgq.SelectStmt) {
	if stmt == nil {
		return
	}

	if wc := stmt.GetWithClause(); wc != nil {
		for _, cte := range wc.GetCtes() {
			walk(m, cte)
		}
	}

	for _, item := range stmt.GetTargetList() {
		walk(m, item)
	}
	for _, item := range stmt.GetFromClause() {
		walk(m, item)
	}
	walk(m, stmt.GetWhereClause())
	walk(m, stmt.GetHavingClause())

	for _, item := range stmt.GetGroupClause() {
		walkGroupByItem(m, item)
	}
	for _, item := range stmt.GetSortClause() {
		walk(m, item)
	}

	// UNION/INTERSECT/EXCEPT operands
	walkSelect(m, stmt.GetLarg())
	walkSelect(m, stmt.GetRarg())
}

func walkGroupByItem(m *Metadata, node *pgq.Node) {
	if ref, ok := node.GetNode().(*pgq.Node_ColumnRef); ok {
		name := columnRefName(ref.ColumnRef)
		if name != "" {
			m.GroupByCols[name] = struct{}{}
		}
	}
	walk(m, node)
}

func addTable(m *Metadata, rv *pgq.RangeVar) {
	if rv == nil || rv.GetRelname() == "" {
		return
	}
	name := upper(rv.GetRelname())
	if rv.GetSchemaname() != "" {
		name = upper(rv.GetSchemaname()) + "." + name
	}
	m.Tables[name] = struct{}{}
}

func addColumnRef(m *Metadata, ref *pgq.ColumnRef) {
	name := columnRefName(ref)
	if name != "" {
		m.Columns[name] = struct{}{}
	}
}

// columnRefName returns the last non-star field of a ColumnRef, upper-cased
// (e.g. "t.id" -> "ID"; "*" -> "").
func columnRefName(ref *pgq.ColumnRef) string {
	fields := ref.GetFields()
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if s, ok := last.GetNode().(*pgq.Node_String_); ok {
		return upper(s.String_.GetSval())
	}
	return ""
}

// extractJoinKey handles the single required shape from spec.md §4.3: a
// top-level two-column equality `a.x = b.y`. More complex predicates
// (AND-ed conditions, non-column operands, non-equality operators) are
// ignored, not partially matched.
func extractJoinKey(m *Metadata, quals *pgq.Node) {
	if quals == nil {
		return
	}
	expr, ok := quals.GetNode().(*pgq.Node_AExpr)
	if !ok {
		return
	}
	if expr.AExpr.GetKind() != pgq.A_Expr_Kind_AEXPR_OP {
		return
	}
	if !isEqualityOperator(expr.AExpr.GetName()) {
		return
	}

	left, lok := columnRefFromNode(expr.AExpr.GetLexpr())
	right, rok := columnRefFromNode(expr.AExpr.GetRexpr())
	if !lok || !rok {
		return
	}

	m.JoinKeys = append(m.JoinKeys, JoinKey{Left: left, Right: right})
}

func isEqualityOperator(nameNodes []*pgq.Node) bool {
	if len(nameNodes) != 1 {
		return false
	}
	s, ok := nameNodes[0].GetNode().(*pgq.Node_String_)
	return ok && s.String_.GetSval() == "="
}

func columnRefFromNode(node *pgq.Node) (string, bool) {
	if node == nil {
		return "", false
	}
	ref, ok := node.GetNode().(*pgq.Node_ColumnRef)
	if !ok {
		return "", false
	}
	name := columnRefName(ref)
	return name, name != ""
}
