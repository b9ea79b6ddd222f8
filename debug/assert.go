//go:build debug

package debug

// Enabled reports whether assertions are compiled in. Assertions that do more
// than a simple check should be guarded with `if debug.Enabled {...}` so the
// compiler can remove them entirely from release builds.
const Enabled = true

func Assert(b bool, message string) {
	if !b {
		panic(message)
	}
}

func AssertErrNil(err error) {
	if err != nil {
		panic(err)
	}
}
