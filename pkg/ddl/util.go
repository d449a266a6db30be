// SPDX-License-Identifier: Apache-2.0

package ddl

import (
	"strings"

	"github.com/oapi-codegen/nullable"
)

func upper(s string) string {
	return strings.ToUpper(s)
}

func nullableString(s string) nullable.Nullable[string] {
	return nullable.NewNullableWithValue(s)
}
