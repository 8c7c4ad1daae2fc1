package screen

import (
	"fmt"
	"strconv"

	"github.com/stlalpha/petscii/internal/charset"
	"github.com/stlalpha/petscii/internal/palette"
)

// Formatter names recognized inside "{...}" tokens.
const (
	FormatClear       = "CLR" // clear screen
	FormatHome        = "HOM" // cursor to upper left corner
	FormatCursorUp    = "CUP" // cursor up NN rows
	FormatCursorDown  = "CDN" // cursor down NN rows
	FormatCursorLeft  = "CLT" // cursor "left" NN columns (moves forward, see formatters)
	FormatCursorRight = "CRT" // cursor "right" NN columns (moves backward)
	FormatColor       = "COL" // set color NN
	FormatReverseOn   = "RON" // reverse video on
	FormatReverseOff  = "ROF" // reverse video off
)

// Token layout: "{XXX}" or "{XXX:NN}".
const (
	tokenOpen        = '{'
	plainTokenLen    = 5
	numericTokenLen  = 8
	numberFieldStart = 5
	numberFieldLen   = 2
)

// diagnosticColor is used for both diagnostic lines.
const diagnosticColor = palette.White

// ErrorKind classifies formatted text failures.
type ErrorKind int

const (
	UnknownFormatterError ErrorKind = iota
	NumberFormatError
	ParsingError
)

// String returns the text shown on screen for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case UnknownFormatterError:
		return "UNKNOWN FORMATTER ERROR"
	case NumberFormatError:
		return "NUMBER FORMAT ERROR"
	default:
		return "PARSING ERROR"
	}
}

// FormatError describes where formatted text could not be interpreted.
// Position counts runes from the start of the text.
type FormatError struct {
	Kind     ErrorKind
	Position int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s AT POSITION %d", e.Kind, e.Position)
}

// cursor is the interpreter state for one PrintFormattedText call.
type cursor struct {
	pos       int // scan position in the text, in runes
	offset    int // next write offset, may be outside the buffer
	lineStart int
	color     int // not validated until written
	reverse   bool
}

type formatter struct {
	name    string
	numeric bool
	apply   func(b *Buffer, c *cursor, n int)
}

// formatters is matched in order; the first name found after '{' wins.
//
// CLT adds to the offset and CRT subtracts from it. Existing screens depend
// on this, so it is kept even though the names suggest the opposite.
var formatters = []formatter{
	{FormatClear, false, func(b *Buffer, c *cursor, _ int) {
		b.FillChar(DefaultChar)
		c.offset = 0
		c.lineStart = 0
	}},
	{FormatHome, false, func(_ *Buffer, c *cursor, _ int) {
		c.offset = 0
		c.lineStart = 0
	}},
	{FormatCursorUp, true, func(b *Buffer, c *cursor, n int) { c.offset -= n * b.width }},
	{FormatCursorDown, true, func(b *Buffer, c *cursor, n int) { c.offset += n * b.width }},
	{FormatCursorLeft, true, func(_ *Buffer, c *cursor, n int) { c.offset += n }},
	{FormatCursorRight, true, func(_ *Buffer, c *cursor, n int) { c.offset -= n }},
	{FormatColor, true, func(_ *Buffer, c *cursor, n int) { c.color = n }},
	{FormatReverseOn, false, func(_ *Buffer, c *cursor, _ int) { c.reverse = true }},
	{FormatReverseOff, false, func(_ *Buffer, c *cursor, _ int) { c.reverse = false }},
}

// FormatterNames returns the recognized formatter names in matching order.
func FormatterNames() []string {
	names := make([]string, len(formatters))
	for i, f := range formatters {
		names[i] = f.name
	}
	return names
}

// Token returns "{NAME}".
func Token(name string) string {
	return "{" + name + "}"
}

// NumericToken returns "{NAME:NN}" with n zero padded to two digits.
func NumericToken(name string, n int) string {
	return fmt.Sprintf("{%s:%02d}", name, n)
}

// PrintFormattedTextAt interprets text at column x, row y.
func (b *Buffer) PrintFormattedTextAt(text string, x, y, color int) {
	b.PrintFormattedText(text, b.Offset(x, y), color)
}

// PrintFormattedText interprets text containing formatter tokens, starting at
// offset with the given color. Line feeds behave as in PrintText.
//
// Malformed input never reaches the caller: interpretation stops and a
// two-line diagnostic is printed at the top of the screen, the error in
// reverse video on row 0 and the offending text on row 1.
func (b *Buffer) PrintFormattedText(text string, offset, color int) {
	b.printFormattedText(text, offset, color)
}

// PrintFormattedTextAtChecked is PrintFormattedTextAt that also returns the
// *FormatError shown in the diagnostic, or nil when the text was clean.
func (b *Buffer) PrintFormattedTextAtChecked(text string, x, y, color int) error {
	if ferr := b.printFormattedText(text, b.Offset(x, y), color); ferr != nil {
		return ferr
	}
	return nil
}

func (b *Buffer) printFormattedText(text string, offset, color int) *FormatError {
	if text == "" {
		return nil
	}
	ferr := b.interpret(text, offset, color)
	if ferr != nil {
		b.printDiagnostic(ferr, text)
	}
	return ferr
}

// CheckFormattedText interprets text into a scratch buffer of the given size
// and returns the *FormatError that PrintFormattedText would have displayed.
func CheckFormattedText(text string, width, height int) error {
	scratch, err := New(width, height)
	if err != nil {
		return err
	}
	if ferr := scratch.interpret(text, 0, DefaultColor); ferr != nil {
		return ferr
	}
	return nil
}

func (b *Buffer) interpret(text string, offset, color int) (ferr *FormatError) {
	src := []rune(text)
	c := &cursor{offset: offset, lineStart: offset, color: color}

	defer func() {
		if r := recover(); r != nil {
			ferr = &FormatError{Kind: ParsingError, Position: c.pos}
		}
	}()

	for c.pos < len(src) {
		ch := src[c.pos]
		switch ch {
		case tokenOpen:
			if err := b.applyToken(src, c); err != nil {
				return err
			}
		case lineFeed:
			c.offset = c.lineStart + b.width
			c.lineStart = c.offset
			c.pos++
		default:
			if c.reverse {
				ch = charset.Reverse(ch)
			}
			b.put(ch, c.color, c.offset)
			c.offset++
			c.pos++
		}
	}
	return nil
}

// applyToken matches the token starting at c.pos and advances past it.
// A token cut off by the end of the text still takes effect before the
// PARSING ERROR is reported at the position it would have ended.
func (b *Buffer) applyToken(src []rune, c *cursor) *FormatError {
	start := c.pos
	for _, f := range formatters {
		if !hasNameAt(src, start+1, f.name) {
			continue
		}
		if !f.numeric {
			f.apply(b, c, 0)
			return advance(src, c, start+plainTokenLen)
		}

		fieldEnd := start + numberFieldStart + numberFieldLen
		if fieldEnd > len(src) {
			return &FormatError{Kind: ParsingError, Position: start}
		}
		n, err := strconv.Atoi(string(src[start+numberFieldStart : fieldEnd]))
		if err != nil {
			return &FormatError{Kind: NumberFormatError, Position: start + numberFieldStart}
		}
		f.apply(b, c, n)
		return advance(src, c, start+numericTokenLen)
	}
	return &FormatError{Kind: UnknownFormatterError, Position: start + 1}
}

func advance(src []rune, c *cursor, end int) *FormatError {
	if end > len(src) {
		return &FormatError{Kind: ParsingError, Position: end}
	}
	c.pos = end
	return nil
}

func hasNameAt(src []rune, at int, name string) bool {
	i := at
	for _, r := range name {
		if i >= len(src) || src[i] != r {
			return false
		}
		i++
	}
	return true
}

func (b *Buffer) printDiagnostic(ferr *FormatError, text string) {
	b.PrintTextAt(charset.ReverseString(ferr.Error()), 0, 0, diagnosticColor)
	b.PrintTextAt(text, 0, 1, diagnosticColor)
}
