// SPDX-License-Identifier: Apache-2.0

package impact

import (
	"context"
	"testing"
	"time"

	"github.com/scia-dev/scia/pkg/finding"
	"github.com/scia-dev/scia/pkg/schema"
	"github.com/scia-dev/scia/pkg/warehouse"
)

// fakeAdapter is an in-memory warehouse.Adapter for exercising the BFS and
// FK lookups without a live database.
type fakeAdapter struct {
	views map[string]string
	fks   []warehouse.ForeignKey
	refs  map[string][]string
}

func (f *fakeAdapter) Connect(context.Context, warehouse.Config) error { return nil }

func (f *fakeAdapter) FetchSchema(context.Context, string, string) ([]schema.Table, error) {
	return nil, nil
}

func (f *fakeAdapter) FetchViews(context.Context, string, string) (map[string]string, error) {
	return f.views, nil
}

func (f *fakeAdapter) FetchForeignKeys(context.Context, string, string) ([]warehouse.ForeignKey, error) {
	return f.fks, nil
}

func (f *fakeAdapter) ParseTableReferences(_ context.Context, sql string) ([]string, error) {
	return f.refs[sql], nil
}

func (f *fakeAdapter) Close() error { return nil }

func tableEvidence(schemaName, table string) map[string]any {
	return map[string]any{"schema": schemaName, "table": table}
}

func TestEnrichDirectViewDependent(t *testing.T) {
	adapter := &fakeAdapter{
		views: map[string]string{"ORDERS_VIEW": "SELECT * FROM ORDERS"},
		refs:  map[string][]string{"SELECT * FROM ORDERS": {"ORDERS"}},
	}
	a := New(adapter)

	findings := []finding.Finding{{
		FindingType: finding.TypeColumnRemoved,
		RiskScore:   80,
		Evidence:    tableEvidence("PUBLIC", "ORDERS"),
	}}

	out, err := a.Enrich(context.Background(), findings)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if out[0].Impact == nil {
		t.Fatal("Enrich: expected Impact to be set")
	}
	if len(out[0].Impact.DirectDependents) != 1 || out[0].Impact.DirectDependents[0].Name != "ORDERS_VIEW" {
		t.Errorf("DirectDependents = %+v, want [ORDERS_VIEW]", out[0].Impact.DirectDependents)
	}
	if out[0].Impact.EstimatedBlastRadius != 1 {
		t.Errorf("EstimatedBlastRadius = %d, want 1", out[0].Impact.EstimatedBlastRadius)
	}
	if out[0].RiskScore != 80 {
		t.Errorf("RiskScore = %d, want 80 (no discount, blast radius > 0)", out[0].RiskScore)
	}
}

func TestEnrichTransitiveViewDependent(t *testing.T) {
	adapter := &fakeAdapter{
		views: map[string]string{
			"ORDERS_VIEW":    "SELECT * FROM ORDERS",
			"ORDERS_SUMMARY": "SELECT * FROM ORDERS_VIEW",
		},
		refs: map[string][]string{
			"SELECT * FROM ORDERS":      {"ORDERS"},
			"SELECT * FROM ORDERS_VIEW": {"ORDERS_VIEW"},
		},
	}
	a := New(adapter, WithMaxDepth(5))

	findings := []finding.Finding{{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")}}
	out, err := a.Enrich(context.Background(), findings)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(out[0].Impact.DirectDependents) != 1 {
		t.Errorf("DirectDependents = %+v, want 1 entry", out[0].Impact.DirectDependents)
	}
	if len(out[0].Impact.TransitiveDependents) != 1 {
		t.Errorf("TransitiveDependents = %+v, want 1 entry", out[0].Impact.TransitiveDependents)
	}
}

func TestEnrichMaxDepthStopsTraversal(t *testing.T) {
	adapter := &fakeAdapter{
		views: map[string]string{
			"V1": "SELECT * FROM ORDERS",
			"V2": "SELECT * FROM V1",
		},
		refs: map[string][]string{
			"SELECT * FROM ORDERS": {"ORDERS"},
			"SELECT * FROM V1":     {"V1"},
		},
	}
	a := New(adapter, WithMaxDepth(1))

	findings := []finding.Finding{{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")}}
	out, _ := a.Enrich(context.Background(), findings)
	if len(out[0].Impact.DirectDependents) != 1 {
		t.Errorf("DirectDependents = %+v, want 1", out[0].Impact.DirectDependents)
	}
	if len(out[0].Impact.TransitiveDependents) != 0 {
		t.Errorf("TransitiveDependents = %+v, want none at max_depth=1", out[0].Impact.TransitiveDependents)
	}
}

func TestEnrichCyclicViewsTerminate(t *testing.T) {
	adapter := &fakeAdapter{
		views: map[string]string{
			"V1": "SELECT * FROM ORDERS JOIN V2",
			"V2": "SELECT * FROM V1",
		},
		refs: map[string][]string{
			"SELECT * FROM ORDERS JOIN V2": {"ORDERS", "V2"},
			"SELECT * FROM V1":             {"V1"},
		},
	}
	a := New(adapter, WithMaxDepth(10))

	findings := []finding.Finding{{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")}}

	done := make(chan struct{})
	var out []finding.Finding
	go func() {
		out, _ = a.Enrich(context.Background(), findings)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enrich did not terminate on a cyclic view graph")
	}
	if out[0].Impact == nil {
		t.Fatal("expected Impact to be set")
	}
}

func TestEnrichBlastRadiusDiscount(t *testing.T) {
	adapter := &fakeAdapter{views: map[string]string{}, fks: nil}
	a := New(adapter)

	findings := []finding.Finding{{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")}}
	out, err := a.Enrich(context.Background(), findings)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if out[0].Impact.EstimatedBlastRadius != 0 {
		t.Fatalf("EstimatedBlastRadius = %d, want 0", out[0].Impact.EstimatedBlastRadius)
	}
	if out[0].RiskScore != 60 {
		t.Errorf("RiskScore = %d, want 60 (0.75 discount of 80)", out[0].RiskScore)
	}
}

func TestEnrichSkipsFindingsWithoutTableEvidence(t *testing.T) {
	adapter := &fakeAdapter{}
	a := New(adapter)

	findings := []finding.Finding{{RiskScore: 100, Evidence: map[string]any{"schema": "PUBLIC"}}}
	out, err := a.Enrich(context.Background(), findings)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if out[0].Impact != nil {
		t.Errorf("expected Impact to remain nil for schema-only evidence, got %+v", out[0].Impact)
	}
	if out[0].RiskScore != 100 {
		t.Errorf("RiskScore = %d, want unchanged 100", out[0].RiskScore)
	}
}

func TestEnrichPreservesOrderUnderConcurrency(t *testing.T) {
	adapter := &fakeAdapter{}
	a := New(adapter, WithConcurrency(4))

	var findings []finding.Finding
	for i := 0; i < 20; i++ {
		findings = append(findings, finding.Finding{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")})
	}

	out, err := a.Enrich(context.Background(), findings)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(out) != len(findings) {
		t.Fatalf("Enrich returned %d findings, want %d", len(out), len(findings))
	}
	for i, f := range out {
		if f.Evidence["table"] != "ORDERS" {
			t.Fatalf("finding at index %d lost its evidence, order was not preserved", i)
		}
	}
}

func TestDownstreamForeignKeysDeduplicates(t *testing.T) {
	adapter := &fakeAdapter{
		views: map[string]string{},
		fks: []warehouse.ForeignKey{
			{TableName: "ORDER_ITEMS", ReferencedTable: "ORDERS"},
			{TableName: "ORDER_ITEMS", ReferencedTable: "ORDERS"},
		},
	}
	a := New(adapter)

	findings := []finding.Finding{{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")}}
	out, _ := a.Enrich(context.Background(), findings)
	if len(out[0].Impact.DownstreamTables) != 1 {
		t.Errorf("DownstreamTables = %+v, want one deduplicated entry", out[0].Impact.DownstreamTables)
	}
}

func TestUpstreamForeignKeys(t *testing.T) {
	adapter := &fakeAdapter{
		views: map[string]string{},
		fks:   []warehouse.ForeignKey{{TableName: "ORDERS", ReferencedTable: "CUSTOMERS"}},
	}
	a := New(adapter)

	findings := []finding.Finding{{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")}}
	out, _ := a.Enrich(context.Background(), findings)
	if len(out[0].Impact.UpstreamDependencies) != 1 || out[0].Impact.UpstreamDependencies[0].Name != "CUSTOMERS" {
		t.Errorf("UpstreamDependencies = %+v, want [CUSTOMERS]", out[0].Impact.UpstreamDependencies)
	}
}

func TestDirectionFlagsDisableTraversal(t *testing.T) {
	adapter := &fakeAdapter{
		views: map[string]string{"V1": "SELECT * FROM ORDERS"},
		refs:  map[string][]string{"SELECT * FROM ORDERS": {"ORDERS"}},
		fks:   []warehouse.ForeignKey{{TableName: "ORDERS", ReferencedTable: "CUSTOMERS"}},
	}
	a := New(adapter, WithDependencyDirection(false, false))

	findings := []finding.Finding{{RiskScore: 80, Evidence: tableEvidence("PUBLIC", "ORDERS")}}
	out, _ := a.Enrich(context.Background(), findings)
	if len(out[0].Impact.DirectDependents) != 0 || len(out[0].Impact.UpstreamDependencies) != 0 {
		t.Errorf("expected no dependents with both directions disabled, got %+v", out[0].Impact)
	}
}
