// SPDX-License-Identifier: Apache-2.0

// Package rules implements the rule engine (C6): a fixed, ordered list of
// pure functions mapping a SchemaDiff (and optional SQL signals) to
// Findings. The engine never deduplicates; a column can legitimately
// trigger more than one rule (spec.md §4.5).
package rules

import (
	"github.com/scia-dev/scia/pkg/diff"
	"github.com/scia-dev/scia/pkg/finding"
	"github.com/scia-dev/scia/pkg/sqlsignal"
)

// Rule is the single signature every rule implements, per spec.md §9
// ("a single rule signature... rules that do not care ignore the second
// argument. No reflection."). signals is nil when the after side provided
// no raw SQL to extract signals from.
type Rule func(changes []diff.Change, signals map[string]*sqlsignal.Metadata) []finding.Finding

// Ordered is the fixed rule list the engine applies, in the order given by
// spec.md §4.5. The final findings list preserves this order first, then
// each rule's natural order within the stably-ordered diff (spec.md §5).
//
// rule_potential_breakage, present in one revision of the source engine and
// dropped in another "to avoid double counting" (spec.md §9), is
// deliberately omitted here.
var Ordered = []Rule{
	SchemaRemoved,
	SchemaAdded,
	TableRemoved,
	TableAdded,
	ColumnRemoved,
	ColumnAdded,
	ColumnTypeChanged,
	NullabilityTightened,
	JoinKeyChanged,
	GrainChange,
}

// Apply runs every rule in Ordered over changes and signals, concatenating
// their findings in rule order.
func Apply(changes []diff.Change, signals map[string]*sqlsignal.Metadata) []finding.Finding {
	var findings []finding.Finding
	for _, rule := range Ordered {
		findings = append(findings, rule(changes, signals)...)
	}
	return findings
}
