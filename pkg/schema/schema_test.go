// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"testing"

	"github.com/oapi-codegen/nullable"
	"github.com/stretchr/testify/assert"
	"github.com/scia-dev/scia/pkg/schema"
)

func TestTableKeyIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	a := schema.Table{SchemaName: "Analytics", TableName: "Orders"}
	b := schema.Table{SchemaName: "ANALYTICS", TableName: "orders"}

	assert.Equal(t, a.Key(), b.Key())
}

func TestColumnKeyIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	a := schema.Column{SchemaName: "s", TableName: "t", ColumnName: "Col"}
	b := schema.Column{SchemaName: "S", TableName: "T", ColumnName: "COL"}

	assert.Equal(t, a.Key(), b.Key())
}

func TestNormalizeDefaultsSchemaAndType(t *testing.T) {
	t.Parallel()

	tbl := schema.Table{
		TableName: "users",
		Columns: []schema.Column{
			{ColumnName: "id"},
			{ColumnName: "name", DataType: "text", OrdinalPosition: 5},
		},
	}

	got := tbl.Normalize()

	assert.Equal(t, schema.DefaultSchema, got.SchemaName)
	assert.Equal(t, "USERS", got.TableName)
	assert.Equal(t, schema.DefaultDataType, got.Columns[0].DataType)
	assert.Equal(t, 1, got.Columns[0].OrdinalPosition)
	assert.Equal(t, "TEXT", got.Columns[1].DataType)
	assert.Equal(t, 5, got.Columns[1].OrdinalPosition)
}

func TestFullyQualifiedNameWithAndWithoutDatabase(t *testing.T) {
	t.Parallel()

	withoutDB := schema.Table{SchemaName: "s", TableName: "t"}
	assert.Equal(t, "S.T", withoutDB.FullyQualifiedName())

	withDB := schema.Table{SchemaName: "s", TableName: "t"}
	withDB.DatabaseName = nullable.NewNullableWithValue("prod")
	assert.Equal(t, "PROD.S.T", withDB.FullyQualifiedName())
}

func TestGetColumnCaseInsensitive(t *testing.T) {
	t.Parallel()

	tbl := schema.Table{Columns: []schema.Column{{ColumnName: "Email"}}}

	col, ok := tbl.GetColumn("EMAIL")
	assert.True(t, ok)
	assert.Equal(t, "Email", col.ColumnName)

	_, ok = tbl.GetColumn("missing")
	assert.False(t, ok)
}
