// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scia-dev/scia/cmd/render"
	"github.com/scia-dev/scia/pkg/analyze"
	"github.com/scia-dev/scia/pkg/ddl"
	"github.com/scia-dev/scia/pkg/finding"
	"github.com/scia-dev/scia/pkg/input"
	"github.com/scia-dev/scia/pkg/warehouse"
)

func analyzeCmd() *cobra.Command {
	var (
		before           string
		after            string
		warehouseName    string
		dialect          string
		connFile         string
		dependencyDepth  int
		includeUpstream  bool
		includeDownstream bool
		format           string
		failOn           string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the risk of a schema change between two snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if dependencyDepth < 1 || dependencyDepth > 10 {
				return fmt.Errorf("--dependency-depth must be between 1 and 10, got %d", dependencyDepth)
			}

			adapter, _, err := connectWarehouse(ctx, before, after, warehouseName, connFile)
			if err != nil {
				return err
			}
			if adapter != nil {
				defer adapter.Close()
			}

			analyzer := analyze.New(
				analyze.WithWarehouse(adapter),
				analyze.WithMaxDepth(dependencyDepth),
				analyze.WithDependencyDirection(includeUpstream, includeDownstream),
				analyze.WithDialect(dialect),
				analyze.WithLogger(analyze.NewLogger()),
			)

			assessment, err := analyzer.Run(ctx, analyze.Source(before), analyze.Source(after))
			if err != nil {
				return err
			}

			output, err := renderAssessment(assessment, format)
			if err != nil {
				return err
			}
			fmt.Println(output)

			if classificationMeets(assessment.Classification, finding.Classification(failOn)) {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Before schema: path, DDL file, or [database.]schema reference")
	cmd.Flags().StringVar(&after, "after", "", "After schema: path, DDL file, or [database.]schema reference")
	cmd.MarkFlagRequired("before")
	cmd.MarkFlagRequired("after")
	cmd.Flags().StringVar(&warehouseName, "warehouse", "", "Warehouse adapter: snowflake, databricks, postgres, redshift")
	cmd.Flags().StringVar(&dialect, "dialect", string(ddl.DialectPostgres), "DDL dialect for raw SQL sides")
	cmd.Flags().StringVar(&connFile, "conn-file", "", "Path to warehouse connection config YAML")
	cmd.Flags().IntVar(&dependencyDepth, "dependency-depth", 3, "Maximum view-dependency traversal depth [1,10]")
	cmd.Flags().BoolVar(&includeUpstream, "include-upstream", true, "Include upstream foreign-key dependencies in enrichment")
	cmd.Flags().BoolVar(&includeDownstream, "include-downstream", true, "Include downstream view/foreign-key dependents in enrichment")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or markdown")
	cmd.Flags().StringVar(&failOn, "fail-on", "HIGH", "Exit 1 when the classification is at or above this severity: LOW, MEDIUM, HIGH")

	return cmd
}

// diffCmd is the legacy, cut-down sub-command: --before/--after only, JSON
// output at default thresholds, enrichment disabled — a thin wrapper
// around the same Analyzer.Run, per spec.md §9's supplemented
// legacy-parity note.
func diffCmd() *cobra.Command {
	var before, after string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the JSON risk assessment of the diff between two schemas, without warehouse enrichment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			analyzer := analyze.New(analyze.WithLogger(analyze.NewLogger()))

			assessment, err := analyzer.Run(cmd.Context(), analyze.Source(before), analyze.Source(after))
			if err != nil {
				return err
			}

			output, err := render.JSON(assessment)
			if err != nil {
				return err
			}
			fmt.Println(output)
			return nil
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Before schema")
	cmd.Flags().StringVar(&after, "after", "", "After schema")
	cmd.MarkFlagRequired("before")
	cmd.MarkFlagRequired("after")

	return cmd
}

func renderAssessment(assessment *finding.RiskAssessment, format string) (string, error) {
	switch format {
	case "markdown":
		return render.Markdown(assessment)
	default:
		return render.JSON(assessment)
	}
}

var classificationRank = map[finding.Classification]int{
	finding.ClassificationLow:    1,
	finding.ClassificationMedium: 2,
	finding.ClassificationHigh:   3,
}

// classificationMeets reports whether actual is at or above threshold.
func classificationMeets(actual, threshold finding.Classification) bool {
	return classificationRank[actual] >= classificationRank[threshold]
}

// connectWarehouse constructs and connects a warehouse adapter when
// warehouseName is set. Connection failures are tolerated (logged, nil
// adapter returned) unless the resolved mode is input.ModeDBRef (at least
// one side is a database reference and neither side is DDL), in which case
// there is no other way to materialize that side and the failure is fatal
// (spec.md §4.9:"Adapter construction failures
// MUST NOT be fatal when the mode permits (JSON/DDL)... In pure DB mode,
// failure is fatal").
func connectWarehouse(ctx context.Context, before, after, warehouseName, connFile string) (warehouse.Adapter, input.Mode, error) {
	mode, _, _, err := input.Resolve(before, after, warehouseName != "")
	if err != nil {
		return nil, 0, err
	}
	if warehouseName == "" {
		return nil, mode, nil
	}

	cfg, err := warehouse.LoadConfig(connFile, warehouseName)
	if err != nil {
		return nil, mode, err
	}
	if err := warehouse.Validate(warehouseName, cfg); err != nil {
		if mode == input.ModeDBRef {
			return nil, mode, err
		}
		fmt.Fprintf(os.Stderr, "warning: %v; continuing without impact enrichment\n", err)
		return nil, mode, nil
	}

	adapter, err := warehouse.New(warehouseName)
	if err != nil {
		if mode == input.ModeDBRef {
			return nil, mode, err
		}
		fmt.Fprintf(os.Stderr, "warning: %v; continuing without impact enrichment\n", err)
		return nil, mode, nil
	}

	if err := adapter.Connect(ctx, cfg); err != nil {
		if mode == input.ModeDBRef {
			return nil, mode, err
		}
		fmt.Fprintf(os.Stderr, "warning: %v; continuing without impact enrichment\n", err)
		return nil, mode, nil
	}

	return adapter, mode, nil
}
