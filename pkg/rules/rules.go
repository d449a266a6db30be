// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"

	"github.com/scia-dev/scia/pkg/diff"
	"github.com/scia-dev/scia/pkg/finding"
	"github.com/scia-dev/scia/pkg/schema"
	"github.com/scia-dev/scia/pkg/sqlsignal"
)

// columnNullability extracts the before/after IsNullable flags from a
// NULLABILITY_CHANGED change's payloads, which the differ always populates
// with schema.Column values.
func columnNullability(c diff.Change) (before, after bool, ok bool) {
	b, bok := c.Before.(schema.Column)
	a, aok := c.After.(schema.Column)
	if !bok || !aok {
		return false, false, false
	}
	return b.IsNullable, a.IsNullable, true
}

// SchemaRemoved: SCHEMA REMOVED -> HIGH, base_risk 100.
func SchemaRemoved(changes []diff.Change, _ map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType == diff.ObjectSchema && c.ChangeType == diff.ChangeRemoved {
			out = append(out, newFinding(finding.TypeSchemaRemoved, finding.SeverityHigh, 100,
				fmt.Sprintf("schema %s was removed", c.Schema), schemaEvidence(c)))
		}
	}
	return out
}

// SchemaAdded: SCHEMA ADDED -> LOW, base_risk 0.
func SchemaAdded(changes []diff.Change, _ map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType == diff.ObjectSchema && c.ChangeType == diff.ChangeAdded {
			out = append(out, newFinding(finding.TypeSchemaAdded, finding.SeverityLow, 0,
				fmt.Sprintf("schema %s was added", c.Schema), schemaEvidence(c)))
		}
	}
	return out
}

// TableRemoved: TABLE REMOVED -> HIGH, base_risk 90.
func TableRemoved(changes []diff.Change, _ map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType == diff.ObjectTable && c.ChangeType == diff.ChangeRemoved {
			out = append(out, newFinding(finding.TypeTableRemoved, finding.SeverityHigh, 90,
				fmt.Sprintf("table %s.%s was removed", c.Schema, c.Table), tableEvidence(c)))
		}
	}
	return out
}

// TableAdded: TABLE ADDED -> LOW, base_risk 0.
func TableAdded(changes []diff.Change, _ map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType == diff.ObjectTable && c.ChangeType == diff.ChangeAdded {
			out = append(out, newFinding(finding.TypeTableAdded, finding.SeverityLow, 0,
				fmt.Sprintf("table %s.%s was added", c.Schema, c.Table), tableEvidence(c)))
		}
	}
	return out
}

// ColumnRemoved: COLUMN REMOVED -> HIGH, base_risk 80.
func ColumnRemoved(changes []diff.Change, _ map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType == diff.ObjectColumn && c.ChangeType == diff.ChangeRemoved {
			out = append(out, newFinding(finding.TypeColumnRemoved, finding.SeverityHigh, 80,
				fmt.Sprintf("column %s.%s.%s was removed", c.Schema, c.Table, c.Column), columnEvidence(c)))
		}
	}
	return out
}

// ColumnAdded: COLUMN ADDED -> LOW, base_risk 0.
func ColumnAdded(changes []diff.Change, _ map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType == diff.ObjectColumn && c.ChangeType == diff.ChangeAdded {
			out = append(out, newFinding(finding.TypeColumnAdded, finding.SeverityLow, 0,
				fmt.Sprintf("column %s.%s.%s was added", c.Schema, c.Table, c.Column), columnEvidence(c)))
		}
	}
	return out
}

// ColumnTypeChanged: COLUMN TYPE_CHANGED -> MEDIUM, base_risk 40, or 50 if
// the column appears in any signal's columns set.
func ColumnTypeChanged(changes []diff.Change, signals map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType != diff.ObjectColumn || c.ChangeType != diff.ChangeTypeChanged {
			continue
		}
		risk := 40
		if anySignalHasColumn(signals, c.Column) {
			risk = 50
		}
		out = append(out, newFinding(finding.TypeColumnTypeChanged, finding.SeverityMedium, risk,
			fmt.Sprintf("column %s.%s.%s changed type", c.Schema, c.Table, c.Column), columnEvidence(c)))
	}
	return out
}

// NullabilityTightened: COLUMN NULLABILITY_CHANGED where the column went
// from nullable to not-null -> MEDIUM, base_risk 50.
func NullabilityTightened(changes []diff.Change, _ map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType != diff.ObjectColumn || c.ChangeType != diff.ChangeNullabilityChanged {
			continue
		}
		beforeNullable, afterNullable, ok := columnNullability(c)
		if !ok || !beforeNullable || afterNullable {
			continue
		}
		out = append(out, newFinding(finding.TypeNullabilityTightened, finding.SeverityMedium, 50,
			fmt.Sprintf("column %s.%s.%s was tightened to NOT NULL", c.Schema, c.Table, c.Column), columnEvidence(c)))
	}
	return out
}

// JoinKeyChanged: a COLUMN REMOVED or TYPE_CHANGED change on a column
// present in any signal's join_keys -> HIGH, base_risk 90.
func JoinKeyChanged(changes []diff.Change, signals map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType != diff.ObjectColumn {
			continue
		}
		if c.ChangeType != diff.ChangeRemoved && c.ChangeType != diff.ChangeTypeChanged {
			continue
		}
		if !anySignalHasJoinKeyColumn(signals, c.Column) {
			continue
		}
		out = append(out, newFinding(finding.TypeJoinKeyChanged, finding.SeverityHigh, 90,
			fmt.Sprintf("column %s.%s.%s is used as a join key", c.Schema, c.Table, c.Column), columnEvidence(c)))
	}
	return out
}

// GrainChange: COLUMN REMOVED on a column present in any signal's
// group_by_cols -> MEDIUM, base_risk 60.
func GrainChange(changes []diff.Change, signals map[string]*sqlsignal.Metadata) []finding.Finding {
	var out []finding.Finding
	for _, c := range changes {
		if c.ObjectType != diff.ObjectColumn || c.ChangeType != diff.ChangeRemoved {
			continue
		}
		if !anySignalHasGroupByColumn(signals, c.Column) {
			continue
		}
		out = append(out, newFinding(finding.TypeGrainChange, finding.SeverityMedium, 60,
			fmt.Sprintf("column %s.%s.%s is used in a GROUP BY grain", c.Schema, c.Table, c.Column), columnEvidence(c)))
	}
	return out
}

func newFinding(t finding.Type, sev finding.Severity, baseRisk int, description string, evidence map[string]any) finding.Finding {
	return finding.Finding{
		FindingType: t,
		Severity:    sev,
		BaseRisk:    baseRisk,
		RiskScore:   baseRisk,
		Confidence:  1.0,
		Description: description,
		Evidence:    evidence,
	}
}

func schemaEvidence(c diff.Change) map[string]any {
	return map[string]any{"schema": c.Schema}
}

func tableEvidence(c diff.Change) map[string]any {
	return map[string]any{"schema": c.Schema, "table": c.Table}
}

func columnEvidence(c diff.Change) map[string]any {
	ev := map[string]any{"schema": c.Schema, "table": c.Table, "column": c.Column}
	if c.Before != nil {
		ev["before"] = c.Before
	}
	if c.After != nil {
		ev["after"] = c.After
	}
	return ev
}

func anySignalHasColumn(signals map[string]*sqlsignal.Metadata, column string) bool {
	for _, m := range signals {
		if m != nil && m.HasColumn(column) {
			return true
		}
	}
	return false
}

func anySignalHasJoinKeyColumn(signals map[string]*sqlsignal.Metadata, column string) bool {
	for _, m := range signals {
		if m != nil && m.HasJoinKeyColumn(column) {
			return true
		}
	}
	return false
}

func anySignalHasGroupByColumn(signals map[string]*sqlsignal.Metadata, column string) bool {
	for _, m := range signals {
		if m != nil && m.HasGroupByColumn(column) {
			return true
		}
	}
	return false
}
