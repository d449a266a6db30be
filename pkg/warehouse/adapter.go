// SPDX-License-Identifier: Apache-2.0

// Package warehouse defines the pluggable warehouse adapter interface (C7)
// and a registry of named constructors, plus concrete Postgres and
// Snowflake adapters.
package warehouse

import (
	"context"

	"github.com/scia-dev/scia/pkg/schema"
)

// ForeignKey is one foreign-key constraint discovered in a schema.
type ForeignKey struct {
	ConstraintName    string
	TableName         string
	ColumnName        string
	ReferencedTable   string
	ReferencedColumn  string
}

// Adapter is the six-operation interface every warehouse backend
// implements (spec.md §4.6). Fetch*/Parse* are expected to be total from
// the caller's perspective: pkg/impact treats any returned error as "log
// and continue with an empty result," never propagating it up through the
// BFS. Connect's error is fatal in DB-reference mode (spec.md §7), and so
// is a FetchSchema error when pkg/analyze uses it to materialize a
// database-reference side.
type Adapter interface {
	Connect(ctx context.Context, cfg Config) error
	FetchSchema(ctx context.Context, database, schemaName string) ([]schema.Table, error)
	FetchViews(ctx context.Context, database, schemaName string) (map[string]string, error)
	FetchForeignKeys(ctx context.Context, database, schemaName string) ([]ForeignKey, error)
	ParseTableReferences(ctx context.Context, sql string) ([]string, error)
	Close() error
}
