// Package debug provides global verbose-trace switches
package debug

import "github.com/teslashibe/go-spotter/internal/log"

// Enabled controls whether verbose per-frame detector traces are emitted.
// Use the --debug flag to enable these very chatty logs.
var Enabled bool

// Log emits a debug-level record only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}
