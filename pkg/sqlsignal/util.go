// SPDX-License-Identifier: Apache-2.0

package sqlsignal

import "strings"

func upper(s string) string {
	return strings.ToUpper(s)
}

func lastComponent(qualifiedName string) string {
	parts := strings.Split(qualifiedName, ".")
	return parts[len(parts)-1]
}
