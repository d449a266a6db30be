// SPDX-License-Identifier: Apache-2.0

package ddl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scia-dev/scia/pkg/ddl"
	"github.com/scia-dev/scia/pkg/schema"
)

func TestParseCreateTable(t *testing.T) {
	t.Parallel()

	result := ddl.Parse(`CREATE TABLE s.t (id INT NOT NULL, name TEXT)`, nil, ddl.DialectPostgres)
	require.Empty(t, result.Warnings)
	require.Len(t, result.Tables, 1)

	tbl := result.Tables[0]
	assert.Equal(t, "S", tbl.SchemaName)
	assert.Equal(t, "T", tbl.TableName)
	require.Len(t, tbl.Columns, 2)
	assert.Equal(t, "ID", tbl.Columns[0].ColumnName)
	assert.False(t, tbl.Columns[0].IsNullable)
	assert.Equal(t, "NAME", tbl.Columns[1].ColumnName)
	assert.True(t, tbl.Columns[1].IsNullable)
}

func TestParseCreateTableDefaultsToPublicSchema(t *testing.T) {
	t.Parallel()

	result := ddl.Parse(`CREATE TABLE t (id INT)`, nil, ddl.DialectPostgres)
	require.Len(t, result.Tables, 1)
	assert.Equal(t, schema.DefaultSchema, result.Tables[0].SchemaName)
}

func TestParseAlterAddColumnOnExistingCreate(t *testing.T) {
	t.Parallel()

	sql := `CREATE TABLE t (id INT NOT NULL); ALTER TABLE t ADD COLUMN c TEXT;`
	result := ddl.Parse(sql, nil, ddl.DialectPostgres)
	require.Empty(t, result.Warnings)
	require.Len(t, result.Tables, 1)
	require.Len(t, result.Tables[0].Columns, 2)
	assert.Equal(t, "C", result.Tables[0].Columns[1].ColumnName)
	assert.Equal(t, 2, result.Tables[0].Columns[1].OrdinalPosition)
}

func TestParseAlterDropColumn(t *testing.T) {
	t.Parallel()

	sql := `CREATE TABLE t (id INT, c TEXT); ALTER TABLE t DROP COLUMN c;`
	result := ddl.Parse(sql, nil, ddl.DialectPostgres)
	require.Len(t, result.Tables[0].Columns, 1)
	assert.Equal(t, "ID", result.Tables[0].Columns[0].ColumnName)
}

func TestParseAlterRenameColumn(t *testing.T) {
	t.Parallel()

	sql := `CREATE TABLE t (old_name INT); ALTER TABLE t RENAME COLUMN old_name TO new_name;`
	result := ddl.Parse(sql, nil, ddl.DialectPostgres)
	require.Len(t, result.Tables[0].Columns, 1)
	assert.Equal(t, "NEW_NAME", result.Tables[0].Columns[0].ColumnName)
}

func TestParseAlterColumnTypeAndNullability(t *testing.T) {
	t.Parallel()

	sql := `CREATE TABLE t (id INT NOT NULL);
		ALTER TABLE t ALTER COLUMN id TYPE BIGINT;
		ALTER TABLE t ALTER COLUMN id DROP NOT NULL;`
	result := ddl.Parse(sql, nil, ddl.DialectPostgres)
	require.Len(t, result.Tables[0].Columns, 1)
	assert.Equal(t, "BIGINT", result.Tables[0].Columns[0].DataType)
	assert.True(t, result.Tables[0].Columns[0].IsNullable)
}

func TestParseAlterOnMissingBaseTableIsSkipped(t *testing.T) {
	t.Parallel()

	result := ddl.Parse(`ALTER TABLE missing ADD COLUMN c TEXT;`, nil, ddl.DialectPostgres)
	assert.Empty(t, result.Tables)
	assert.NotEmpty(t, result.Warnings)
}

func TestParseUnparseableSQLNeverAborts(t *testing.T) {
	t.Parallel()

	result := ddl.Parse(`this is not valid SQL at all (((`, nil, ddl.DialectPostgres)
	assert.Empty(t, result.Tables)
	require.Len(t, result.Warnings, 1)
}

func TestParseSnowflakeModifyColumnRewrite(t *testing.T) {
	t.Parallel()

	sql := `CREATE TABLE t (id INT); ALTER TABLE t MODIFY COLUMN id BIGINT;`
	result := ddl.Parse(sql, nil, ddl.DialectSnowflake)
	require.Empty(t, result.Warnings)
	assert.Equal(t, "BIGINT", result.Tables[0].Columns[0].DataType)
}

func TestParseUnknownStatementIsSkippedNotFatal(t *testing.T) {
	t.Parallel()

	sql := `CREATE TABLE t (id INT); CREATE INDEX idx_t_id ON t (id);`
	result := ddl.Parse(sql, nil, ddl.DialectPostgres)
	require.Len(t, result.Tables, 1)
	assert.NotEmpty(t, result.Warnings)
}

func TestParseAppliesAlterOnTopOfJSONBase(t *testing.T) {
	t.Parallel()

	base := []schema.Table{
		{SchemaName: "S", TableName: "T", Columns: []schema.Column{
			{SchemaName: "S", TableName: "T", ColumnName: "ID", DataType: "INT", OrdinalPosition: 1},
		}},
	}

	result := ddl.Parse(`ALTER TABLE s.t ADD COLUMN c TEXT;`, base, ddl.DialectPostgres)
	require.Len(t, result.Tables, 1)
	require.Len(t, result.Tables[0].Columns, 2)
	assert.Equal(t, "C", result.Tables[0].Columns[1].ColumnName)
}
