// SPDX-License-Identifier: Apache-2.0

package warehouse

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestPostgresAdapterFetchSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_name", "column_name", "data_type", "is_nullable", "ordinal_position"}).
		AddRow("users", "id", "integer", "NO", 1).
		AddRow("users", "email", "text", "YES", 2)
	mock.ExpectQuery("information_schema.columns").WithArgs("public").WillReturnRows(rows)

	a := &PostgresAdapter{db: db}
	tables, err := a.FetchSchema(context.Background(), "appdb", "public")
	if err != nil {
		t.Fatalf("FetchSchema: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("FetchSchema returned %d tables, want 1", len(tables))
	}
	if tables[0].TableName != "USERS" || len(tables[0].Columns) != 2 {
		t.Errorf("FetchSchema table = %+v, want USERS with 2 columns", tables[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresAdapterFetchViews(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"viewname", "definition"}).
		AddRow("active_users", "SELECT * FROM users WHERE active")
	mock.ExpectQuery("pg_catalog.pg_views").WithArgs("public").WillReturnRows(rows)

	a := &PostgresAdapter{db: db}
	views, err := a.FetchViews(context.Background(), "appdb", "public")
	if err != nil {
		t.Fatalf("FetchViews: %v", err)
	}
	if views["active_users"] == "" {
		t.Errorf("FetchViews missing active_users, got %+v", views)
	}
}

func TestPostgresAdapterFetchForeignKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"constraint_name", "table_name", "column_name", "referenced_table", "referenced_column"}).
		AddRow("orders_user_id_fkey", "orders", "user_id", "users", "id")
	mock.ExpectQuery("table_constraints").WithArgs("public").WillReturnRows(rows)

	a := &PostgresAdapter{db: db}
	fks, err := a.FetchForeignKeys(context.Background(), "appdb", "public")
	if err != nil {
		t.Fatalf("FetchForeignKeys: %v", err)
	}
	if len(fks) != 1 || fks[0].ReferencedTable != "users" {
		t.Errorf("FetchForeignKeys = %+v, want one FK referencing users", fks)
	}
}

func TestPostgresAdapterFetchSchemaQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("information_schema.columns").WillReturnError(context.DeadlineExceeded)

	a := &PostgresAdapter{db: db}
	_, err = a.FetchSchema(context.Background(), "appdb", "public")
	var adapterErr AdapterError
	if err == nil {
		t.Fatal("FetchSchema: expected error")
	}
	if _, ok := err.(AdapterError); !ok {
		t.Errorf("FetchSchema error = %T, want AdapterError", adapterErr)
	}
}

func TestPostgresAdapterParseTableReferences(t *testing.T) {
	a := &PostgresAdapter{}
	refs, err := a.ParseTableReferences(context.Background(), "SELECT * FROM orders o JOIN users u ON o.user_id = u.id")
	if err != nil {
		t.Fatalf("ParseTableReferences: %v", err)
	}
	if len(refs) != 2 {
		t.Errorf("ParseTableReferences = %v, want 2 tables", refs)
	}
}

func TestPostgresAdapterCloseNilDB(t *testing.T) {
	a := &PostgresAdapter{}
	if err := a.Close(); err != nil {
		t.Errorf("Close on unconnected adapter: %v", err)
	}
}
