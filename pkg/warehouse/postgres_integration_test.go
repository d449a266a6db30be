// SPDX-License-Identifier: Apache-2.0

package warehouse_test

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scia-dev/scia/pkg/warehouse"
)

const defaultPostgresVersion = "15.3"

var tConnStr string

// TestMain starts a single postgres container shared by every test in this
// package: each test opens its own connection against it rather than paying
// container startup cost per test.
func TestMain(m *testing.M) {
	ctx := context.Background()

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(30 * time.Second)

	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	ctr, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:"+pgVersion),
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		log.Printf("skipping all warehouse package tests: %v", err)
		os.Exit(0)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		os.Exit(1)
	}

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		log.Printf("failed to terminate container: %v", err)
	}

	os.Exit(exitCode)
}

// seedSchema creates a fresh, randomly-named schema with an ORDERS/CUSTOMERS
// pair linked by a foreign key and a view over ORDERS, and returns its name.
func seedSchema(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open("postgres", tConnStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	schemaName := fmt.Sprintf("scia_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schemaName))
	})

	statements := []string{
		fmt.Sprintf("CREATE SCHEMA %s", schemaName),
		fmt.Sprintf(`CREATE TABLE %s.customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`, schemaName),
		fmt.Sprintf(`CREATE TABLE %s.orders (id INTEGER PRIMARY KEY, customer_id INTEGER REFERENCES %s.customers(id), total NUMERIC)`, schemaName, schemaName),
		fmt.Sprintf(`CREATE VIEW %s.orders_report AS SELECT * FROM %s.orders`, schemaName, schemaName),
	}
	for _, stmt := range statements {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	return schemaName
}

func connectedAdapter(t *testing.T, schemaName string) warehouse.Adapter {
	t.Helper()

	u, err := url.Parse(tConnStr)
	require.NoError(t, err)

	cfg := warehouse.Config{
		Host:     u.Hostname(),
		Port:     u.Port(),
		User:     u.User.Username(),
		Database: "postgres",
		Schema:   schemaName,
	}
	if pw, ok := u.User.Password(); ok {
		cfg.Password = pw
	}

	adapter, err := warehouse.New("postgres")
	require.NoError(t, err)
	require.NoError(t, adapter.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adapter.Close() })

	return adapter
}

func TestPostgresAdapterFetchSchemaAgainstLiveDatabase(t *testing.T) {
	schemaName := seedSchema(t)
	adapter := connectedAdapter(t, schemaName)

	tables, err := adapter.FetchSchema(context.Background(), "", schemaName)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, tbl := range tables {
		names[tbl.TableName] = true
	}
	assert.True(t, names["ORDERS"])
	assert.True(t, names["CUSTOMERS"])
}

func TestPostgresAdapterFetchForeignKeysAgainstLiveDatabase(t *testing.T) {
	schemaName := seedSchema(t)
	adapter := connectedAdapter(t, schemaName)

	fks, err := adapter.FetchForeignKeys(context.Background(), "", schemaName)
	require.NoError(t, err)

	require.Len(t, fks, 1)
	assert.Equal(t, "orders", fks[0].TableName)
	assert.Equal(t, "customers", fks[0].ReferencedTable)
}

func TestPostgresAdapterFetchViewsAndParseTableReferencesAgainstLiveDatabase(t *testing.T) {
	schemaName := seedSchema(t)
	adapter := connectedAdapter(t, schemaName)

	views, err := adapter.FetchViews(context.Background(), "", schemaName)
	require.NoError(t, err)
	require.Contains(t, views, "orders_report")

	refs, err := adapter.ParseTableReferences(context.Background(), views["orders_report"])
	require.NoError(t, err)
	assert.Contains(t, refs, "ORDERS")
}
