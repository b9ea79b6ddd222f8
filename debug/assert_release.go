//go:build !debug

// Package debug provides assertions that are enabled by the debug build tag
// and compile to no-ops otherwise.
//
// Assertions aren't considered idiomatic Go, but they have their place in an
// embedded environment where a failed invariant can corrupt hardware state.
package debug

// Enabled reports whether assertions are compiled in. Assertions that do more
// than a simple check should be guarded with `if debug.Enabled {...}` so the
// compiler can remove them entirely from release builds.
const Enabled = false

// Assert panics if b is false.
func Assert(b bool, message string) {}

// AssertErrNil panics if err is not nil.
func AssertErrNil(err error) {}
