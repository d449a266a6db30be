// SPDX-License-Identifier: Apache-2.0

package ddl

import (
	"fmt"
	"strings"

	pgq "github.com/pganalyze/pg_query_go/v6"
)

// convertTypeName renders a parsed TypeName node back to a dialect-neutral
// type token, upper-cased in storage by schema.Table.Normalize. Grounded on
// sql2pgroll's own TypeName-to-string walk: built from Names directly
// instead of round-tripping through a Deparse call, so it never needs a
// full, valid statement to render a bare type.
func convertTypeName(typeName *pgq.TypeName) string {
	if typeName == nil {
		return ""
	}

	ignored := map[string]bool{"pg_catalog": true}
	// Built-in types the grammar rewrites to internal pg_catalog names
	// (BIGINT -> int8, ...) are mapped back to their SQL spelling.
	builtin := map[string]string{
		"int2": "smallint", "int4": "integer", "int8": "bigint",
		"float4": "real", "float8": "double precision", "bool": "boolean",
		"bpchar": "char", "timestamptz": "timestamp with time zone", "timetz": "time with time zone",
	}

	qualified := false
	parts := make([]string, 0, len(typeName.Names))
	for _, node := range typeName.Names {
		part := node.GetString_().GetSval()
		if ignored[part] {
			qualified = true
			continue
		}
		if name, ok := builtin[part]; ok && qualified {
			part = name
		}
		parts = append(parts, part)
	}

	var mods []string
	for _, node := range typeName.Typmods {
		if x, ok := node.GetAConst().Val.(*pgq.A_Const_Ival); ok {
			mods = append(mods, fmt.Sprintf("%d", x.Ival.GetIval()))
		}
	}
	var modifier string
	if len(mods) > 0 {
		modifier = fmt.Sprintf("(%s)", strings.Join(mods, ","))
	}

	var bounds string
	for _, node := range typeName.ArrayBounds {
		if node.GetInteger().GetIval() == -1 {
			bounds = "[]"
		} else {
			bounds = fmt.Sprintf("%s[%d]", bounds, node.GetInteger().GetIval())
		}
	}

	return strings.Join(parts, ".") + modifier + bounds
}
