// SPDX-License-Identifier: Apache-2.0

package analyze

import "github.com/scia-dev/scia/pkg/warehouse"

// Option configures an Analyzer via the functional-options pattern.
type Option func(*Analyzer)

// WithWarehouse attaches an already-connected warehouse.Adapter used for
// impact enrichment (C8). Omit it (or pass nil) to run analysis without
// enrichment.
func WithWarehouse(adapter warehouse.Adapter) Option {
	return func(a *Analyzer) { a.adapter = adapter }
}

// WithMaxDepth bounds how many view-reference hops impact enrichment
// follows. Non-positive values are ignored.
func WithMaxDepth(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxDepth = n
		}
	}
}

// WithDependencyDirection toggles which dependency directions impact
// enrichment reports. Both default to true.
func WithDependencyDirection(upstream, downstream bool) Option {
	return func(a *Analyzer) {
		a.includeUpstream = upstream
		a.includeDownstream = downstream
	}
}

// WithDialect selects the DDL dialect used to parse raw-SQL sides.
func WithDialect(d string) Option {
	return func(a *Analyzer) { a.dialect = d }
}

// WithLogger overrides the Analyzer's Logger. Defaults to a no-op.
func WithLogger(l Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}
