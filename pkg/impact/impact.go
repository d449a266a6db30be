// SPDX-License-Identifier: Apache-2.0

// Package impact implements the bounded dependency-graph traversal (C8):
// downstream view discovery via BFS over view definitions, and upstream/
// downstream table discovery via foreign keys. Grounded on
// original_source/scia/core/impact.go's analyze_downstream/analyze_upstream/
// analyze_downstream_fks, generalized to a single Analyzer with a bounded
// concurrent fan-out across findings.
package impact

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/scia-dev/scia/pkg/finding"
	"github.com/scia-dev/scia/pkg/warehouse"
)

const defaultMaxDepth = 3
const defaultConcurrency = 8

// Logger is the minimal logging seam impact needs: every warehouse failure
// during enrichment is swallowed and logged, never propagated (spec.md §4.7:
// "all three operations tolerate adapter failures by returning an empty list
// and logging").
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

// Analyzer enriches findings with dependency-graph impact, given a
// connected warehouse.Adapter.
type Analyzer struct {
	adapter           warehouse.Adapter
	maxDepth          int
	includeUpstream   bool
	includeDownstream bool
	concurrency       int
	logger            Logger
}

// Option configures an Analyzer via the functional-options pattern.
type Option func(*Analyzer)

func WithMaxDepth(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxDepth = n
		}
	}
}

// WithDependencyDirection toggles which of upstream/downstream traversal
// runs during enrichment; both default to true.
func WithDependencyDirection(upstream, downstream bool) Option {
	return func(a *Analyzer) {
		a.includeUpstream = upstream
		a.includeDownstream = downstream
	}
}

func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

func WithLogger(l Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New builds an Analyzer bound to a connected adapter.
func New(adapter warehouse.Adapter, opts ...Option) *Analyzer {
	a := &Analyzer{
		adapter:           adapter,
		maxDepth:          defaultMaxDepth,
		includeUpstream:   true,
		includeDownstream: true,
		concurrency:       defaultConcurrency,
		logger:            NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// tableRef is the (database, schema, table) identity extracted from a
// finding's evidence map.
type tableRef struct {
	database string
	schema   string
	table    string
}

func tableRefFromEvidence(evidence map[string]any) (tableRef, bool) {
	schemaName, _ := evidence["schema"].(string)
	tableName, _ := evidence["table"].(string)
	if tableName == "" {
		return tableRef{}, false
	}
	database, _ := evidence["database"].(string)
	return tableRef{database: database, schema: schemaName, table: tableName}, true
}

func (t tableRef) fqn() string {
	parts := make([]string, 0, 3)
	if t.database != "" {
		parts = append(parts, t.database)
	}
	if t.schema != "" {
		parts = append(parts, t.schema)
	}
	parts = append(parts, t.table)
	return strings.ToUpper(strings.Join(parts, "."))
}

// Enrich replaces every finding whose evidence names a table with a copy
// carrying an ImpactDetail, applying the blast-radius discount (spec.md
// §4.7). Findings without table-bound evidence (schema-level findings) pass
// through unchanged. Enrichment across findings is fanned out with a bounded
// errgroup; each result is written to its original index so concurrent
// completion order never reorders the output (spec.md §4.7 expansion,
// §5 "parallel fan-out... up to N concurrent adapter calls").
func (a *Analyzer) Enrich(ctx context.Context, findings []finding.Finding) ([]finding.Finding, error) {
	out := make([]finding.Finding, len(findings))
	copy(out, findings)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, f := range findings {
		ref, ok := tableRefFromEvidence(f.Evidence)
		if !ok {
			continue
		}
		i, ref, f := i, ref, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			detail := a.analyzeTable(gctx, ref)
			out[i] = applyBlastRadiusDiscount(f, detail)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// applyBlastRadiusDiscount attaches detail to f and, if the blast radius is
// zero and the finding's risk_score is positive, discounts risk_score by
// 0.75 (integer truncation), per spec.md §4.7.
func applyBlastRadiusDiscount(f finding.Finding, detail *finding.ImpactDetail) finding.Finding {
	f.Impact = detail
	if detail.EstimatedBlastRadius == 0 && f.RiskScore > 0 {
		f.RiskScore = f.RiskScore * 3 / 4
	}
	return f
}

// analyzeTable runs the downstream-view BFS and the upstream/downstream FK
// lookups for a single table, tolerating adapter failures per operation.
func (a *Analyzer) analyzeTable(ctx context.Context, ref tableRef) *finding.ImpactDetail {
	direct, transitive := a.downstreamViews(ctx, ref)
	var downstreamTables, upstreamDeps []finding.DependencyObject
	if a.includeDownstream {
		downstreamTables = a.downstreamForeignKeys(ctx, ref)
	}
	if a.includeUpstream {
		upstreamDeps = a.upstreamForeignKeys(ctx, ref)
	}

	blastRadius := len(direct) + len(downstreamTables)

	return &finding.ImpactDetail{
		DirectDependents:     direct,
		TransitiveDependents: transitive,
		UpstreamDependencies: upstreamDeps,
		DownstreamTables:     downstreamTables,
		AffectedApplications: []string{},
		EstimatedBlastRadius: blastRadius,
	}
}

// downstreamViews runs the BFS from spec.md §4.7: queue of (object, depth),
// seen set keyed on the upper-cased fully-qualified name. Views are fetched
// once; each is matched against the current frontier object by either its
// fully-qualified or last-component name, since view definitions may
// reference a table unqualified.
func (a *Analyzer) downstreamViews(ctx context.Context, ref tableRef) (direct, transitive []finding.DependencyObject) {
	if !a.includeDownstream {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, nil
	}

	views, err := a.adapter.FetchViews(ctx, ref.database, ref.schema)
	if err != nil {
		a.logger.Warn("failed to fetch views for impact analysis", "error", err)
		return nil, nil
	}

	type queueItem struct {
		fqn   string
		depth int
	}
	seen := map[string]bool{ref.fqn(): true}
	queue := []queueItem{{fqn: ref.fqn(), depth: 0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.depth >= a.maxDepth {
			continue
		}

		for viewName, sql := range views {
			fullViewName := tableRef{database: ref.database, schema: ref.schema, table: viewName}.fqn()
			if seen[fullViewName] {
				continue
			}

			refs, err := a.adapter.ParseTableReferences(ctx, sql)
			if err != nil {
				a.logger.Warn("failed to parse view definition for impact analysis", "view", viewName, "error", err)
				continue
			}

			if !referencesObject(refs, current.fqn) {
				continue
			}

			dep := finding.DependencyObject{
				ObjectType: finding.ObjectTypeView,
				Name:       viewName,
				Schema:     ref.schema,
				IsCritical: false,
			}
			if current.depth == 0 {
				direct = append(direct, dep)
			} else {
				transitive = append(transitive, dep)
			}
			seen[fullViewName] = true
			queue = append(queue, queueItem{fqn: fullViewName, depth: current.depth + 1})
		}
	}
	return direct, transitive
}

// referencesObject reports whether any of refs (already upper-cased by the
// adapter) matches obj by its fully-qualified or last-path-component name.
func referencesObject(refs []string, obj string) bool {
	last := obj
	if idx := strings.LastIndex(obj, "."); idx >= 0 {
		last = obj[idx+1:]
	}
	for _, r := range refs {
		if r == obj || r == last {
			return true
		}
	}
	return false
}

func (a *Analyzer) downstreamForeignKeys(ctx context.Context, ref tableRef) []finding.DependencyObject {
	if err := ctx.Err(); err != nil {
		return nil
	}
	fks, err := a.adapter.FetchForeignKeys(ctx, ref.database, ref.schema)
	if err != nil {
		a.logger.Warn("failed to fetch foreign keys for downstream analysis", "error", err)
		return nil
	}

	seen := map[string]bool{}
	var out []finding.DependencyObject
	upperTable := strings.ToUpper(ref.table)
	for _, fk := range fks {
		if strings.ToUpper(fk.ReferencedTable) != upperTable {
			continue
		}
		key := strings.ToUpper(fk.TableName) + "." + strings.ToUpper(ref.schema)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, finding.DependencyObject{
			ObjectType: finding.ObjectTypeTable,
			Name:       fk.TableName,
			Schema:     ref.schema,
			IsCritical: true,
		})
	}
	return out
}

func (a *Analyzer) upstreamForeignKeys(ctx context.Context, ref tableRef) []finding.DependencyObject {
	if err := ctx.Err(); err != nil {
		return nil
	}
	fks, err := a.adapter.FetchForeignKeys(ctx, ref.database, ref.schema)
	if err != nil {
		a.logger.Warn("failed to fetch foreign keys for upstream analysis", "error", err)
		return nil
	}

	upperTable := strings.ToUpper(ref.table)
	var out []finding.DependencyObject
	for _, fk := range fks {
		if strings.ToUpper(fk.TableName) != upperTable {
			continue
		}
		out = append(out, finding.DependencyObject{
			ObjectType: finding.ObjectTypeTable,
			Name:       fk.ReferencedTable,
			Schema:     ref.schema,
			IsCritical: true,
		})
	}
	return out
}
