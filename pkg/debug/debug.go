// Package debug gates the emoji console traces printed alongside the
// structured log. Both switches are safe to flip from any goroutine.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

var (
	verbose   atomic.Bool
	detection atomic.Bool

	// Output receives the traces. Tests swap it for a buffer.
	Output io.Writer = os.Stdout
)

// Enable turns general traces on or off (-debug).
func Enable(on bool) { verbose.Store(on) }

// Enabled reports whether general traces are printed.
func Enabled() bool { return verbose.Load() }

// SetDetection turns the per-frame marker and pose dumps on or off.
// The viewer binds it to the 'p' key.
func SetDetection(on bool) { detection.Store(on) }

// Detection reports whether per-frame dumps are printed.
func Detection() bool { return detection.Load() }

// Log prints when general traces are enabled.
func Log(format string, args ...any) {
	if verbose.Load() {
		fmt.Fprintf(Output, format, args...)
	}
}

// DetectLog prints when per-frame dumps are enabled.
func DetectLog(format string, args ...any) {
	if detection.Load() {
		fmt.Fprintf(Output, format, args...)
	}
}
