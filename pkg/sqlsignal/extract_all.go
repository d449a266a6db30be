// SPDX-License-Identifier: Apache-2.0

package sqlsignal

// ExtractAll extracts Metadata for every named SQL statement in
// statements. A statement that fails to parse is simply absent from the
// result map (spec.md §4.3: "never raises: on failure yields None for that
// entry"). Each key is independent of every other (spec.md §5), so callers
// needing concurrency may fan this out themselves; pure CPU-bound parsing
// gains little from it here.
func ExtractAll(statements map[string]string) map[string]*Metadata {
	out := make(map[string]*Metadata, len(statements))
	for name, sql := range statements {
		m, err := Extract(sql)
		if err != nil {
			continue
		}
		out[name] = m
	}
	return out
}
