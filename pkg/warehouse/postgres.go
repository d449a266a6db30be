// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq"

	"github.com/scia-dev/scia/internal/connstr"
	"github.com/scia-dev/scia/pkg/schema"
	"github.com/scia-dev/scia/pkg/sqlsignal"
)

func init() {
	Register("postgres", func() Adapter { return &PostgresAdapter{} })
}

// PostgresAdapter implements Adapter against a live PostgreSQL database via
// lib/pq, reusing pkg/db.RDB's retry-on-transient-error idiom (generalized
// to any connection error, see retry.go).
type PostgresAdapter struct {
	db *sql.DB
}

func (a *PostgresAdapter) Connect(ctx context.Context, cfg Config) error {
	port := cfg.Port
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%s", cfg.Host, port),
		Path:   "/" + cfg.Database,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()

	connStr := u.String()
	if cfg.Schema != "" {
		withSearchPath, err := connstr.AppendSearchPathOption(connStr, cfg.Schema)
		if err != nil {
			return ConnectionError{Warehouse: "postgres", Cause: err}
		}
		connStr = withSearchPath
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return ConnectionError{Warehouse: "postgres", Cause: err}
	}

	if err := withRetry(ctx, func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return ConnectionError{Warehouse: "postgres", Cause: err}
	}

	a.db = db
	return nil
}

func (a *PostgresAdapter) resolveSchema(ctx context.Context, schemaName string) string {
	if schemaName != "" {
		return schemaName
	}
	var current string
	_ = withRetry(ctx, func() error {
		return a.db.QueryRowContext(ctx, "SELECT current_schema()").Scan(&current)
	})
	if current == "" {
		return schema.DefaultSchema
	}
	return current
}

func (a *PostgresAdapter) resolveDatabase(ctx context.Context, database string) string {
	if database != "" {
		return database
	}
	var current string
	_ = withRetry(ctx, func() error {
		return a.db.QueryRowContext(ctx, "SELECT current_database()").Scan(&current)
	})
	return current
}

func (a *PostgresAdapter) FetchSchema(ctx context.Context, database, schemaName string) ([]schema.Table, error) {
	schemaName = a.resolveSchema(ctx, schemaName)
	database = a.resolveDatabase(ctx, database)

	const query = `
		SELECT table_name, column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1
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

func (a *PostgresAdapter) FetchViews(ctx context.Context, database, schemaName string) (map[string]string, error) {
	schemaName = a.resolveSchema(ctx, schemaName)

	const query = `SELECT viewname, definition FROM pg_catalog.pg_views WHERE schemaname = $1`

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

func (a *PostgresAdapter) FetchForeignKeys(ctx context.Context, database, schemaName string) ([]ForeignKey, error) {
	schemaName = a.resolveSchema(ctx, schemaName)

	const query = `
		SELECT
			tc.constraint_name, tc.table_name, kcu.column_name,
			ccu.table_name AS referenced_table, ccu.column_name AS referenced_column
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_schema = $1`

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

// ParseTableReferences extracts qualified table names from arbitrary SQL
// (typically a view definition), reusing the same AST walk pkg/sqlsignal
// uses for join/group-by signal extraction.
func (a *PostgresAdapter) ParseTableReferences(_ context.Context, sqlText string) ([]string, error) {
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

func (a *PostgresAdapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
