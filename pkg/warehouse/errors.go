// SPDX-License-Identifier: Apache-2.0

package warehouse

import "fmt"

// ConnectionError is returned by Adapter.Connect. It is a warning in
// JSON/DDL modes (enrichment disabled) but fatal in pure DB-reference mode
// (spec.md §7).
type ConnectionError struct {
	Warehouse string
	Cause     error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Warehouse, e.Cause)
}

func (e ConnectionError) Unwrap() error { return e.Cause }

// AdapterError wraps a failure inside a single adapter operation. During
// enrichment it is recovered (spec.md §7): pkg/impact logs it and
// substitutes an empty result. pkg/analyze returns it, fatally, when
// FetchSchema fails while materializing a database-reference side.
type AdapterError struct {
	Op    string
	Cause error
}

func (e AdapterError) Error() string {
	return fmt.Sprintf("warehouse adapter: %s: %v", e.Op, e.Cause)
}

func (e AdapterError) Unwrap() error { return e.Cause }

// NotImplementedError is returned by New when the requested warehouse name
// is registered as a stub (spec.md §9: "Stub warehouses surface as
// NotImplemented at registry lookup, not at call time").
type NotImplementedError struct {
	Warehouse string
}

func (e NotImplementedError) Error() string {
	return fmt.Sprintf("warehouse %q is not implemented", e.Warehouse)
}

// ConfigError surfaces a connection-config loading failure to the caller
// with a path hint (spec.md §7).
type ConfigError struct {
	Path  string
	Cause error
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("connection config %s: %v", e.Path, e.Cause)
}

func (e ConfigError) Unwrap() error { return e.Cause }
