// SPDX-License-Identifier: Apache-2.0

package warehouse

import "github.com/oapi-codegen/nullable"

func nullableString(s string) nullable.Nullable[string] {
	if s == "" {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(s)
}
