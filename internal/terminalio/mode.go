// Package terminalio adapts rendered frames to what a remote terminal can
// display.
package terminalio

import (
	"io"
	"strings"
)

// OutputMode selects the character encoding sent to a client.
type OutputMode int

const (
	OutputModeUTF8  OutputMode = iota // Unicode glyphs as UTF-8
	OutputModeCP437                   // IBM PC code page, for BBS terminals
	OutputModeASCII                   // 7-bit only
)

func (m OutputMode) String() string {
	switch m {
	case OutputModeCP437:
		return "cp437"
	case OutputModeASCII:
		return "ascii"
	default:
		return "utf8"
	}
}

// cp437Terms are terminal types that expect code page 437.
var cp437Terms = []string{"ansi", "syncterm", "netrunner", "pcansi", "scoansi", "cterm", "qodem"}

// ModeForTerm guesses the output mode from a terminal type string such as
// the TERM environment variable or a telnet TERMINAL-TYPE reply.
func ModeForTerm(term string) OutputMode {
	t := strings.ToLower(strings.TrimSpace(term))
	switch {
	case t == "" || strings.Contains(t, "xterm") || strings.Contains(t, "utf") ||
		strings.Contains(t, "screen") || strings.Contains(t, "tmux") || strings.Contains(t, "linux"):
		return OutputModeUTF8
	case t == "dumb" || strings.HasPrefix(t, "vt"):
		return OutputModeASCII
	}
	for _, c := range cp437Terms {
		if strings.Contains(t, c) {
			return OutputModeCP437
		}
	}
	return OutputModeUTF8
}

// NewWriter wraps w for mode. ASCII output is produced by the renderer, so
// only CP437 needs a converting writer.
func NewWriter(w io.Writer, mode OutputMode) io.Writer {
	if mode == OutputModeCP437 {
		return NewCP437Writer(w)
	}
	return w
}
