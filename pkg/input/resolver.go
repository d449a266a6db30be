// SPDX-License-Identifier: Apache-2.0

// Package input classifies the before/after sources passed to an analysis
// run as a JSON snapshot, a DDL script, or a live-database reference, per
// spec.md §4.1.
package input

import (
	"os"
	"strings"
)

// Kind is the classification of a single input side.
type Kind int

const (
	// KindJSON is a path to a JSON schema snapshot.
	KindJSON Kind = iota
	// KindDDL is a path to a DDL script.
	KindDDL
	// KindDBRef is a "[database.]schema.table" or "[database.]schema" reference.
	KindDBRef
)

func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindDDL:
		return "sql"
	case KindDBRef:
		return "database"
	default:
		return "unknown"
	}
}

// Mode is the overall mode of an analysis run, derived from the two sides'
// Kinds.
type Mode int

const (
	ModeJSON Mode = iota
	ModeDDL
	ModeDBRef
)

// Resolution is the result of classifying one side of an analysis run.
type Resolution struct {
	Source string
	Kind   Kind
}

// Resolve classifies before/after and returns the overall Mode, failing
// fatally per spec.md §7 when a path-shaped input doesn't exist, or when a
// database reference is present without hasWarehouse.
func Resolve(before, after string, hasWarehouse bool) (Mode, Resolution, Resolution, error) {
	b, err := classify(before)
	if err != nil {
		return 0, Resolution{}, Resolution{}, err
	}
	a, err := classify(after)
	if err != nil {
		return 0, Resolution{}, Resolution{}, err
	}

	before_, after_ := Resolution{Source: before, Kind: b}, Resolution{Source: after, Kind: a}

	switch {
	case b == KindJSON && a == KindJSON:
		return ModeJSON, before_, after_, nil
	case b == KindDDL || a == KindDDL:
		return ModeDDL, before_, after_, nil
	case b == KindDBRef || a == KindDBRef:
		if !hasWarehouse {
			ref := before
			if b != KindDBRef {
				ref = after
			}
			return 0, Resolution{}, Resolution{}, MissingWarehouseError{Reference: ref}
		}
		return ModeDBRef, before_, after_, nil
	default:
		return 0, Resolution{}, Resolution{}, AmbiguousError{Input: before + " + " + after}
	}
}

// classify applies the detection rules of spec.md §4.1, in order:
//  1. .json suffix -> JSON
//  2. .sql suffix -> DDL
//  3. dotted 2-3 part identifier -> DB_REF
//  4. otherwise, if the path exists on disk: .sql -> DDL, else JSON
//  5. fallback: DB_REF if it contains '.', else a NotFoundError (a path
//     without '.' that does not exist on disk cannot be read as JSON)
func classify(path string) (Kind, error) {
	lower := strings.ToLower(path)

	switch {
	case strings.HasSuffix(lower, ".json"):
		return requireExists(path, KindJSON)
	case strings.HasSuffix(lower, ".sql"):
		return requireExists(path, KindDDL)
	}

	if isDBReference(path) {
		return KindDBRef, nil
	}

	if _, err := os.Stat(path); err == nil {
		if strings.HasSuffix(lower, ".sql") {
			return KindDDL, nil
		}
		return KindJSON, nil
	}

	if strings.Contains(path, ".") {
		return KindDBRef, nil
	}
	return requireExists(path, KindJSON)
}

// requireExists returns kind if path exists on disk, else a fatal
// NotFoundError. Database references never go through this path.
func requireExists(path string, kind Kind) (Kind, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, NotFoundError{Path: path}
	}
	return kind, nil
}

// isDBReference reports whether s parses as a "[database.]schema.table" or
// "[database.]schema" reference: a dot not in the leading position, split
// into 2-3 identifier parts.
func isDBReference(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || !strings.Contains(s, ".") {
		return false
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if !isValidIdentifierPart(p) {
			return false
		}
	}
	return true
}

// isValidIdentifierPart reports whether p is a (possibly quoted)
// alphanumeric/underscore identifier.
func isValidIdentifierPart(p string) bool {
	p = unquote(p)
	if p == "" {
		return false
	}
	for _, r := range p {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// DBReference is a parsed "[database.]schema[.table]" reference.
type DBReference struct {
	Database string
	Schema   string
	Table    string
}

// ParseDBReference splits a database reference into its parts, per spec.md
// §6: "[database.]schema.table" or "[database.]schema". When exactly two
// parts are supplied and reinterpretAsDBSchema is true (the "fetch all
// tables in a schema" case), "a.b" is reinterpreted as (database=a,
// schema=b) rather than (schema=a, table=b).
func ParseDBReference(s string, reinterpretAsDBSchema bool) DBReference {
	parts := strings.Split(s, ".")
	for i, p := range parts {
		parts[i] = unquote(p)
	}

	switch len(parts) {
	case 3:
		return DBReference{Database: parts[0], Schema: parts[1], Table: parts[2]}
	case 2:
		if reinterpretAsDBSchema {
			return DBReference{Database: parts[0], Schema: parts[1]}
		}
		return DBReference{Schema: parts[0], Table: parts[1]}
	case 1:
		return DBReference{Schema: parts[0]}
	default:
		return DBReference{}
	}
}
