// SPDX-License-Identifier: Apache-2.0

package ddl

import (
	"regexp"
	"strings"
)

// Dialect is a SQL variant tag accepted by Parse.
type Dialect string

const (
	DialectSnowflake  Dialect = "snowflake"
	DialectPostgres   Dialect = "postgres"
	DialectMySQL      Dialect = "mysql"
	DialectBigQuery   Dialect = "bigquery"
	DialectDatabricks Dialect = "databricks"
	DialectRedshift   Dialect = "redshift"
)

// Preprocessor rewrites dialect-specific text into the PostgreSQL-compatible
// grammar that the parser actually understands.
type Preprocessor func(string) string

var preprocessors = map[Dialect][]Preprocessor{}

// RegisterPreprocessor adds a text-rewriter to the ordered list run for
// dialect before parsing. Preprocessors run in registration order. New
// dialects can register without recompiling callers of Parse.
func RegisterPreprocessor(dialect Dialect, p Preprocessor) {
	preprocessors[dialect] = append(preprocessors[dialect], p)
}

// preprocess runs every registered preprocessor for dialect over sql, in
// order. Dialects with no registered preprocessor (postgres, bigquery,
// redshift, databricks) pass through unchanged.
func preprocess(dialect Dialect, sql string) string {
	for _, p := range preprocessors[dialect] {
		sql = p(sql)
	}
	return sql
}

// snowflakeModifyColumnRe matches `MODIFY [COLUMN] <col> <type>`, the one
// required Snowflake rewrite (spec.md §4.2): it becomes
// `ALTER COLUMN <col> TYPE <type>`.
var snowflakeModifyColumnRe = regexp.MustCompile(`(?i)\bMODIFY\s+(?:COLUMN\s+)?([A-Za-z_][A-Za-z0-9_]*)\s+((?:[A-Za-z_][A-Za-z0-9_]*)(?:\s*\([^)]*\))?)`)

// mysqlModifyColumnRe matches the MySQL `MODIFY COLUMN <col> <type>` form,
// which is identical in shape to Snowflake's but parsed by a separate
// dialect so operators can register a different rewrite per grammar if the
// two ever diverge.
var mysqlModifyColumnRe = snowflakeModifyColumnRe

func init() {
	RegisterPreprocessor(DialectSnowflake, func(sql string) string {
		return snowflakeModifyColumnRe.ReplaceAllString(sql, "ALTER COLUMN $1 TYPE $2")
	})

	// MySQL's MODIFY COLUMN has no TYPE keyword either; without this
	// rewrite its ALTER TABLE statements fail the PostgreSQL grammar
	// outright. Registered separately from Snowflake's so the two dialects
	// can diverge later without touching call sites.
	RegisterPreprocessor(DialectMySQL, func(sql string) string {
		return mysqlModifyColumnRe.ReplaceAllString(sql, "ALTER COLUMN $1 TYPE $2")
	})
}

// NormalizeDialect lower-cases and trims a dialect tag supplied by a caller
// (CLI flag, connection config) before it's used as a map key.
func NormalizeDialect(s string) Dialect {
	return Dialect(strings.ToLower(strings.TrimSpace(s)))
}
