// SPDX-License-Identifier: Apache-2.0

// Package analyze implements the orchestrator (C10): it wires the input
// resolver, DDL parser, differ, signal extractor, rule engine, impact
// analyzer and risk aggregator into the single 8-step sequence of
// spec.md §4.9.
package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/scia-dev/scia/internal/jsonschema"
	"github.com/scia-dev/scia/pkg/ddl"
	"github.com/scia-dev/scia/pkg/diff"
	"github.com/scia-dev/scia/pkg/finding"
	"github.com/scia-dev/scia/pkg/impact"
	"github.com/scia-dev/scia/pkg/input"
	"github.com/scia-dev/scia/pkg/risk"
	"github.com/scia-dev/scia/pkg/rules"
	"github.com/scia-dev/scia/pkg/schema"
	"github.com/scia-dev/scia/pkg/sqlsignal"
	"github.com/scia-dev/scia/pkg/warehouse"
)

const defaultMaxDepth = 3

// Source is one side (before or after) of an analysis run: a file path, or
// a "[database.]schema[.table]" reference, exactly as passed on the CLI.
type Source string

// Analyzer runs a full before/after comparison. Build one with New and the
// With* options below.
type Analyzer struct {
	adapter           warehouse.Adapter
	maxDepth          int
	includeUpstream   bool
	includeDownstream bool
	dialect           string
	logger            Logger
}

// New builds an Analyzer. With no options it runs with enrichment disabled
// and both dependency directions on by default.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		maxDepth:          defaultMaxDepth,
		includeUpstream:   true,
		includeDownstream: true,
		dialect:           string(ddl.DialectPostgres),
		logger:            NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the 8-step sequence of spec.md §4.9 and returns the final
// risk assessment.
func (a *Analyzer) Run(ctx context.Context, before, after Source) (*finding.RiskAssessment, error) {
	runID := uuid.NewString()

	// Step 1: resolve inputs.
	_, beforeRes, afterRes, err := input.Resolve(string(before), string(after), a.adapter != nil)
	if err != nil {
		return nil, err
	}

	if err := checkCancelled(ctx, "resolve"); err != nil {
		return nil, err
	}

	// Step 2: materialize before_schema/after_schema.
	beforeTables, beforeDB, _, err := a.materialize(ctx, beforeRes, nil)
	if err != nil {
		return nil, err
	}
	afterTables, afterDB, afterRawSQL, err := a.materialize(ctx, afterRes, beforeTables)
	if err != nil {
		return nil, err
	}

	var warnings []string

	// Step 3: database-name mismatch warning.
	if beforeDB != "" && afterDB != "" && !strings.EqualFold(beforeDB, afterDB) {
		warnings = append(warnings, fmt.Sprintf("database_name mismatch: before=%q after=%q", beforeDB, afterDB))
	}

	if err := checkCancelled(ctx, "diff"); err != nil {
		return nil, err
	}

	// Step 4: diff.
	changes := diff.Diff(beforeTables, afterTables)

	// Step 5: SQL signals, only if the after side provided raw migration SQL.
	var signals map[string]*sqlsignal.Metadata
	if afterRawSQL != "" {
		signals = sqlsignal.ExtractAll(map[string]string{"after": afterRawSQL})
	}

	// Step 6: apply rules.
	findings := rules.Apply(changes, signals)

	// Step 7: enrich with impact analysis, if a warehouse adapter is present
	// and at least one dependency direction was requested.
	if a.adapter != nil && (a.includeUpstream || a.includeDownstream) {
		if err := checkCancelled(ctx, "enrich"); err != nil {
			return nil, err
		}

		impactAnalyzer := impact.New(a.adapter,
			impact.WithMaxDepth(a.maxDepth),
			impact.WithDependencyDirection(a.includeUpstream, a.includeDownstream),
			impact.WithLogger(a.logger),
		)
		enriched, err := impactAnalyzer.Enrich(ctx, findings)
		if err != nil {
			return nil, CancelledError{Stage: "enrich", Cause: err}
		}
		findings = enriched
	}

	// Step 8: aggregate and return.
	score, classification := risk.Aggregate(findings)

	return &finding.RiskAssessment{
		Findings:       findings,
		Warnings:       warnings,
		RiskScore:      score,
		Classification: classification,
		RunID:          runID,
	}, nil
}

// materialize resolves one side of the run into its normalized table list,
// its snapshot-level database name (if any), and its raw SQL text (only
// ever non-empty for a DDL side, and only meaningful on the after side per
// spec.md §4.9 step 5). base is the other side's already-materialized
// tables, used as the starting point for a DDL side that only carries
// ALTER statements.
func (a *Analyzer) materialize(ctx context.Context, res input.Resolution, base []schema.Table) ([]schema.Table, string, string, error) {
	if err := checkCancelled(ctx, "materialize:"+res.Source); err != nil {
		return nil, "", "", err
	}

	switch res.Kind {
	case input.KindJSON:
		tables, dbName, err := a.readSnapshot(res.Source)
		return tables, dbName, "", err

	case input.KindDDL:
		data, err := os.ReadFile(res.Source)
		if err != nil {
			return nil, "", "", ReadError{Path: res.Source, Cause: err}
		}
		sql := string(data)
		result := ddl.Parse(sql, base, ddl.Dialect(a.dialect))
		for _, w := range result.Warnings {
			a.logger.Warn("ddl parse warning", "source", res.Source, "warning", w)
		}
		return result.Tables, "", sql, nil

	case input.KindDBRef:
		return a.fetchFromWarehouse(ctx, res.Source)

	default:
		return nil, "", "", fmt.Errorf("unresolvable input kind for %q", res.Source)
	}
}

// readSnapshot decodes a JSON snapshot, validating it against
// schema/snapshot.schema.json first (spec.md §6: "a single object or an
// array of objects").
func (a *Analyzer) readSnapshot(path string) ([]schema.Table, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", ReadError{Path: path, Cause: err}
	}

	if err := jsonschema.ValidateSnapshot(data); err != nil {
		return nil, "", SnapshotError{Path: path, Cause: err}
	}

	tables, err := decodeSnapshot(data)
	if err != nil {
		return nil, "", SnapshotError{Path: path, Cause: err}
	}

	normalized := make([]schema.Table, len(tables))
	dbName := ""
	for i, t := range tables {
		normalized[i] = t.Normalize()
		if dbName == "" {
			dbName = schema.DatabaseNameOf(t.DatabaseName)
		}
	}
	return normalized, dbName, nil
}

// decodeSnapshot unmarshals data as either a single table object or an
// array of table objects, per the snapshot.schema.json oneOf.
func decodeSnapshot(data []byte) ([]schema.Table, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var tables []schema.Table
		if err := json.Unmarshal(data, &tables); err != nil {
			return nil, err
		}
		return tables, nil
	}

	var table schema.Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	return []schema.Table{table}, nil
}

// fetchFromWarehouse materializes one side from a live database reference,
// re-interpreting a two-part reference as (database, schema) since an
// analysis run always diffs a whole schema's worth of tables, never a
// single table in isolation.
func (a *Analyzer) fetchFromWarehouse(ctx context.Context, reference string) ([]schema.Table, string, string, error) {
	ref := input.ParseDBReference(reference, true)

	tables, err := a.adapter.FetchSchema(ctx, ref.Database, ref.Schema)
	if err != nil {
		return nil, "", "", warehouse.AdapterError{Op: "fetch_schema", Cause: err}
	}

	if ref.Table != "" {
		filtered := make([]schema.Table, 0, 1)
		want := strings.ToUpper(ref.Table)
		for _, t := range tables {
			if strings.ToUpper(t.TableName) == want {
				filtered = append(filtered, t)
			}
		}
		tables = filtered
	}

	return tables, ref.Database, "", nil
}

func checkCancelled(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return CancelledError{Stage: stage, Cause: err}
	}
	return nil
}
