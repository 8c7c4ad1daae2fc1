// Package logging gates debug output for the petscii tools.
package logging

import (
	"log"
	"os"
)

// DebugEnabled controls whether Debug() produces output.
// Set via -debug flag or PETSCII_DEBUG=1 environment variable.
var DebugEnabled bool

// Configure turns debug logging on when flagValue is set or the environment
// asks for it, and adds microseconds to timestamps in that case.
func Configure(flagValue bool) {
	DebugEnabled = flagValue || os.Getenv("PETSCII_DEBUG") == "1"
	if DebugEnabled {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		log.Printf("DEBUG: debug logging enabled")
	}
}

// Debug logs a message only when DebugEnabled is true.
func Debug(format string, args ...any) {
	if DebugEnabled {
		log.Printf("DEBUG: "+format, args...)
	}
}
