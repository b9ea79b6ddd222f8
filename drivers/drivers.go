// Package drivers builds on the rcp package to provide common interfaces and
// higher-level features.
package drivers

import "io"

// FIXME SystemWriter needs go:nosplit pragma
type SystemWriter func(int, []byte) int

// NewSystemWriter wraps an io.Writer for use with rtos.SetSystemWriter().
// Write errors are discarded, there is no way to report them at that level.
func NewSystemWriter(w io.Writer) SystemWriter {
	return func(fd int, p []byte) int {
		n, _ := w.Write(p)
		return n
	}
}
