// SPDX-License-Identifier: Apache-2.0

package warehouse

// Constructor builds a fresh, unconnected Adapter instance.
type Constructor func() Adapter

var constructors = map[string]Constructor{}

// stubs is the set of warehouse names that are recognized but not backed by
// a real Constructor. New reports NotImplementedError for these, and the
// same NotImplementedError for names that are not registered at all.
var stubs = map[string]bool{}

// Register adds a named adapter constructor to the registry. Called from
// each adapter's init(), mirroring sql2pgroll's dialect-preprocessor
// registry pattern: a global map populated at process start, looked up by
// tag at run time.
func Register(name string, ctor Constructor) {
	constructors[name] = ctor
}

// RegisterStub marks name as a recognized but unimplemented warehouse.
func RegisterStub(name string) {
	stubs[name] = true
}

// New constructs the adapter registered under name. Unimplemented
// warehouses (currently databricks, redshift) fail at this lookup step,
// never at call time.
func New(name string) (Adapter, error) {
	if ctor, ok := constructors[name]; ok {
		return ctor(), nil
	}
	if stubs[name] {
		return nil, NotImplementedError{Warehouse: name}
	}
	return nil, NotImplementedError{Warehouse: name}
}
