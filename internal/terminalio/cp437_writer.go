package terminalio

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/stlalpha/petscii/internal/render"
)

// ansiState tracks the parser state for ANSI escape sequences.
type ansiState int

const (
	ansiStateGround ansiState = iota // Normal text processing
	ansiStateEscape                  // Saw ESC (\x1b)
	ansiStateCSI                     // Saw ESC [ (Control Sequence Introducer)
)

// CP437Writer converts UTF-8 text to CP437 bytes, passing ANSI escape
// sequences through unmodified. Runes CP437 cannot represent are written as
// their ASCII fallback.
type CP437Writer struct {
	w       io.Writer
	state   ansiState
	pending []byte // incomplete UTF-8 sequence from the previous Write
	out     bytes.Buffer
}

// NewCP437Writer creates a CP437 writer on top of w.
func NewCP437Writer(w io.Writer) *CP437Writer {
	return &CP437Writer{w: w, state: ansiStateGround}
}

// Write reports len(p) on success; the bytes written to the underlying
// writer differ in number.
func (cw *CP437Writer) Write(p []byte) (int, error) {
	data := p
	if len(cw.pending) > 0 {
		data = append(cw.pending, p...)
		cw.pending = nil
	}
	cw.out.Reset()

	for i := 0; i < len(data); {
		b := data[i]
		switch cw.state {
		case ansiStateGround:
			if b == 0x1b {
				cw.out.WriteByte(b)
				cw.state = ansiStateEscape
				i++
				continue
			}
			if b < utf8.RuneSelf {
				cw.out.WriteByte(b)
				i++
				continue
			}
			if !utf8.FullRune(data[i:]) {
				cw.pending = append([]byte(nil), data[i:]...)
				i = len(data)
				continue
			}
			r, size := utf8.DecodeRune(data[i:])
			cw.out.WriteByte(EncodeRune(r))
			i += size

		case ansiStateEscape:
			cw.out.WriteByte(b)
			if b == '[' {
				cw.state = ansiStateCSI
			} else {
				cw.state = ansiStateGround
			}
			i++

		case ansiStateCSI:
			cw.out.WriteByte(b)
			if b >= '@' && b <= '~' {
				cw.state = ansiStateGround
			}
			i++
		}
	}

	if cw.out.Len() > 0 {
		if _, err := cw.w.Write(cw.out.Bytes()); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// EncodeRune returns the CP437 byte for r, using the ASCII fallback when
// CP437 has no such character.
func EncodeRune(r rune) byte {
	if r < utf8.RuneSelf {
		return byte(r)
	}
	if b, ok := charmap.CodePage437.EncodeRune(r); ok {
		return b
	}
	return byte(render.ASCIIFallback(r))
}
