package logging

import (
	"bytes"
	"log"
	"os"
	"testing"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
		DebugEnabled = false
	})
	return &buf
}

func TestDebugDisabled(t *testing.T) {
	buf := captureLog(t)
	DebugEnabled = false

	Debug("this should not appear")

	if buf.Len() > 0 {
		t.Errorf("Debug output when disabled: %s", buf.String())
	}
}

func TestDebugEnabled(t *testing.T) {
	buf := captureLog(t)
	DebugEnabled = true

	Debug("screen %s applied", "welcome")

	if !bytes.Contains(buf.Bytes(), []byte("DEBUG: screen welcome applied")) {
		t.Errorf("Expected debug output, got: %s", buf.String())
	}
}

func TestConfigure(t *testing.T) {
	captureLog(t)

	t.Setenv("PETSCII_DEBUG", "")
	Configure(false)
	if DebugEnabled {
		t.Error("debug should stay off without flag or env")
	}

	Configure(true)
	if !DebugEnabled {
		t.Error("flag should enable debug")
	}

	t.Setenv("PETSCII_DEBUG", "1")
	Configure(false)
	if !DebugEnabled {
		t.Error("PETSCII_DEBUG=1 should enable debug")
	}
}
