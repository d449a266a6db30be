// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scia-dev/scia/pkg/schema"
	"github.com/scia-dev/scia/pkg/sqlsignal"
)

func init() {
	Register("snowflake", func() Adapter { return NewSnowflakeAdapter() })
	RegisterStub("databricks")
	RegisterStub("redshift")
}

// SQLOpener opens a database/sql.DB for a given driver name and DSN. It
// exists so tests can inject a fake driver without this module taking a
// dependency on a real cloud-vendor client (spec.md §1 Non-goals:
// "warehouse-specific network clients").
type SQLOpener func(driverName, dataSourceName string) (*sql.DB, error)

// SnowflakeOption configures a SnowflakeAdapter.
type SnowflakeOption func(*SnowflakeAdapter)

// WithSQLOpener overrides how the adapter opens its database/sql.DB. The
// default opener calls sql.Open("snowflake", dsn), which fails with "unknown
// driver" unless the caller has separately registered a real Snowflake
// driver under that name — this module does not vendor one.
func WithSQLOpener(opener SQLOpener) SnowflakeOption {
	return func(a *SnowflakeAdapter) { a.opener = opener }
}

// SnowflakeAdapter implements Adapter against any database/sql.DB that
// speaks Snowflake's ANSI-compatible INFORMATION_SCHEMA views. Grounded on
// original_source/scia/warehouse/snowflake.py, the most complete warehouse
// backend in the original source.
type SnowflakeAdapter struct {
	db     *sql.DB
	opener SQLOpener
}

func NewSnowflakeAdapter(opts ...SnowflakeOption) *SnowflakeAdapter {
	a := &SnowflakeAdapter{opener: sql.Open}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *SnowflakeAdapter) Connect(ctx context.Context, cfg Config) error {
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s", cfg.User, cfg.Password, cfg.Account, cfg.Database, cfg.Schema)

	db, err := a.opener("snowflake", dsn)
	if err != nil {
		return ConnectionError{Warehouse: "snowflake", Cause: err}
	}

	if err := withRetry(ctx, func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return ConnectionError{Warehouse: "snowflake", Cause: err}
	}

	a.db = db
	return nil
}

func (a *SnowflakeAdapter) FetchSchema(ctx context.Context, database, schemaName string) ([]schema.Table, error) {
	if schemaName == "" {
		schemaName = schema.DefaultSchema
	}

	const query = `
		SELECT table_name, column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ?
		ORDER BY table_name, ordinal_position`

	var rows *sql.Rows
	err := withRetry(ctx, func() error {
		var qErr error
		rows, qErr = a.db.QueryContext(ctx, query, schemaName)
		return qErr
	})
	if err != nil {
		return nil, AdapterError{Op: "fetch_schema", Cause: err}
	}
	defer rows.Close()

	byTable := map[string][]schema.Column{}
	var order []string
	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		var ordinal int
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &ordinal); err != nil {
			return nil, AdapterError{Op: "fetch_schema", Cause: err}
		}
		if _, ok := byTable[tableName]; !ok {
			order = append(order, tableName)
		}
		byTable[tableName] = append(byTable[tableName], schema.Column{
			SchemaName:      schemaName,
			TableName:       tableName,
			ColumnName:      columnName,
			DataType:        dataType,
			IsNullable:      isNullable == "YES",
			OrdinalPosition: ordinal,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, AdapterError{Op: "fetch_schema", Cause: err}
	}

	tables := make([]schema.Table, 0, len(order))
	for _, name := range order {
		tables = append(tables, schema.Table{
			DatabaseName: nullableString(database),
			SchemaName:   schemaName,
			TableName:    name,
			Columns:      byTable[name],
		}.Normalize())
	}
	return tables, nil
}

func (a *SnowflakeAdapter) FetchViews(ctx context.Context, database, schemaName string) (map[string]string, error) {
	if schemaName == "" {
		schemaName = schema.DefaultSchema
	}

	const query = `SELECT table_name, view_definition FROM information_schema.views WHERE table_schema = ?`

	var rows *sql.Rows
	err := withRetry(ctx, func() error {
		var qErr error
		rows, qErr = a.db.QueryContext(ctx, query, schemaName)
		return qErr
	})
	if err != nil {
		return nil, AdapterError{Op: "fetch_views", Cause: err}
	}
	defer rows.Close()

	views := map[string]string{}
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, AdapterError{Op: "fetch_views", Cause: err}
		}
		views[name] = def
	}
	return views, rows.Err()
}

func (a *SnowflakeAdapter) FetchForeignKeys(ctx context.Context, database, schemaName string) ([]ForeignKey, error) {
	if schemaName == "" {
		schemaName = schema.DefaultSchema
	}

	const query = `
		SELECT fk.constraint_name, fk.table_name, fk.column_name, pk.table_name, pk.column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage fk ON rc.constraint_name = fk.constraint_name
		JOIN information_schema.key_column_usage pk ON rc.unique_constraint_name = pk.constraint_name
		WHERE fk.table_schema = ?`

	var rows *sql.Rows
	err := withRetry(ctx, func() error {
		var qErr error
		rows, qErr = a.db.QueryContext(ctx, query, schemaName)
		return qErr
	})
	if err != nil {
		return nil, AdapterError{Op: "fetch_foreign_keys", Cause: err}
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.ConstraintName, &fk.TableName, &fk.ColumnName, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, AdapterError{Op: "fetch_foreign_keys", Cause: err}
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func (a *SnowflakeAdapter) ParseTableReferences(_ context.Context, sqlText string) ([]string, error) {
	m, err := sqlsignal.Extract(sqlText)
	if err != nil {
		return nil, AdapterError{Op: "parse_table_references", Cause: err}
	}
	out := make([]string, 0, len(m.Tables))
	for t := range m.Tables {
		out = append(out, t)
	}
	return out, nil
}

func (a *SnowflakeAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
