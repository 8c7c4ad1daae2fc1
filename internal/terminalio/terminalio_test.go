package terminalio

import (
	"bytes"
	"testing"
)

func TestModeForTerm(t *testing.T) {
	tests := []struct {
		term string
		want OutputMode
	}{
		{"", OutputModeUTF8},
		{"xterm-256color", OutputModeUTF8},
		{"screen", OutputModeUTF8},
		{"ANSI", OutputModeCP437},
		{"syncterm", OutputModeCP437},
		{"ansi-bbs", OutputModeCP437},
		{"dumb", OutputModeASCII},
		{"vt100", OutputModeASCII},
		{"something-else", OutputModeUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := ModeForTerm(tt.term); got != tt.want {
				t.Errorf("ModeForTerm(%q) = %s, want %s", tt.term, got, tt.want)
			}
		})
	}
}

func TestEncodeRune(t *testing.T) {
	tests := []struct {
		in   rune
		want byte
	}{
		{'A', 'A'},
		{0x2502, 0xB3}, // box vertical
		{0x2500, 0xC4}, // box horizontal
		{0x00A3, 0x9C}, // pound
		{0x03C0, 0xE3}, // pi
		{0x2592, 0xB1}, // medium shade
		{0x2571, '/'},  // not in CP437
		{0x1FB8C, '#'}, // not in CP437, no table entry
	}
	for _, tt := range tests {
		if got := EncodeRune(tt.in); got != tt.want {
			t.Errorf("EncodeRune(%U) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestCP437WriterPassesEscapes(t *testing.T) {
	var buf bytes.Buffer
	w := NewCP437Writer(&buf)

	in := "\x1b[38;2;255;255;255m│A\x1b[0m£"
	n, err := w.Write([]byte(in))
	if err != nil || n != len(in) {
		t.Fatalf("Write = %d, %v", n, err)
	}
	want := "\x1b[38;2;255;255;255m\xb3A\x1b[0m\x9c"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestCP437WriterSplitRune(t *testing.T) {
	var buf bytes.Buffer
	w := NewCP437Writer(&buf)

	b := []byte("x│y")
	w.Write(b[:2]) // "x" plus the first byte of the box character
	w.Write(b[2:])
	if buf.String() != "x\xb3y" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCP437WriterSplitEscape(t *testing.T) {
	var buf bytes.Buffer
	w := NewCP437Writer(&buf)
	w.Write([]byte("\x1b[1"))
	w.Write([]byte(";31m│"))
	if buf.String() != "\x1b[1;31m\xb3" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestNewWriter(t *testing.T) {
	var buf bytes.Buffer
	if NewWriter(&buf, OutputModeUTF8) != &buf {
		t.Error("UTF-8 mode should write straight through")
	}
	if _, ok := NewWriter(&buf, OutputModeCP437).(*CP437Writer); !ok {
		t.Error("CP437 mode should convert")
	}
}
