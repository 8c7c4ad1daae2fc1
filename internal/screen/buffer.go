// Package screen implements the character-cell screen model: screen RAM
// (characters) and color RAM (palette indices) of equal size, addressed by a
// row-major linear offset (x + y*width).
//
// Writes outside the grid, and colors outside the palette, are dropped
// without error. Fills and text placement rely on that and never check
// bounds themselves.
//
// A Buffer is not safe for concurrent use; callers serialize access.
package screen

import (
	"errors"
	"fmt"

	"github.com/stlalpha/petscii/internal/palette"
)

// Defaults for a freshly allocated screen, matching the C64 power-on screen.
const (
	DefaultWidth  = 40
	DefaultHeight = 25
	DefaultChar   = ' '
	DefaultColor  = palette.LightBlue
)

// ErrInvalidDimensions is returned for a non-positive width or height.
var ErrInvalidDimensions = errors.New("screen dimensions must be positive")

// Buffer holds screen RAM and color RAM.
type Buffer struct {
	width  int
	height int
	cells  []rune
	colors []int
}

// New allocates a width x height buffer filled with DefaultChar/DefaultColor.
func New(width, height int) (*Buffer, error) {
	b := &Buffer{}
	if err := b.Resize(width, height); err != nil {
		return nil, err
	}
	return b, nil
}

// Resize replaces both grids with freshly allocated ones of the new size and
// resets them to the default fill. Slices previously returned by Cells or
// Colors are not affected.
func (b *Buffer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	b.width = width
	b.height = height
	b.cells = make([]rune, width*height)
	b.colors = make([]int, width*height)
	b.FillChar(DefaultChar)
	b.FillColor(DefaultColor)
	return nil
}

// Width returns the number of columns.
func (b *Buffer) Width() int { return b.width }

// Height returns the number of rows.
func (b *Buffer) Height() int { return b.height }

// Size returns width*height.
func (b *Buffer) Size() int { return b.width * b.height }

func (b *Buffer) validOffset(offset int) bool {
	return offset >= 0 && offset < b.width*b.height
}

// Offset converts a position to a linear offset. x and y are not clamped.
func (b *Buffer) Offset(x, y int) int {
	return x + y*b.width
}

// PutChar writes ch at offset. Out-of-range offsets are ignored.
func (b *Buffer) PutChar(ch rune, offset int) {
	if b.validOffset(offset) {
		b.cells[offset] = ch
	}
}

// PutCharAt writes ch at column x, row y. The position is only checked as a
// linear offset, so an x past the row end lands on a following row.
func (b *Buffer) PutCharAt(ch rune, x, y int) {
	b.PutChar(ch, b.Offset(x, y))
}

// PutColor writes color at offset. Out-of-range offsets and colors outside the
// palette are ignored.
func (b *Buffer) PutColor(color, offset int) {
	if b.validOffset(offset) && palette.Valid(color) {
		b.colors[offset] = color
	}
}

// PutColorAt writes color at column x, row y.
func (b *Buffer) PutColorAt(color, x, y int) {
	b.PutColor(color, b.Offset(x, y))
}

// FillChar writes ch to every cell.
func (b *Buffer) FillChar(ch rune) {
	for i := 0; i < b.width*b.height; i++ {
		b.PutChar(ch, i)
	}
}

// FillColor writes color to every cell.
func (b *Buffer) FillColor(color int) {
	for i := 0; i < b.width*b.height; i++ {
		b.PutColor(color, i)
	}
}

// FillCharRect writes ch to every cell of the closed rectangle
// [x0,x1] x [y0,y1]. Cells outside the buffer are skipped.
func (b *Buffer) FillCharRect(ch rune, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			b.PutCharAt(ch, x, y)
		}
	}
}

// FillColorRect writes color to every cell of the closed rectangle
// [x0,x1] x [y0,y1].
func (b *Buffer) FillColorRect(color, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			b.PutColorAt(color, x, y)
		}
	}
}

// CharAt returns the character at offset.
func (b *Buffer) CharAt(offset int) (rune, bool) {
	if !b.validOffset(offset) {
		return 0, false
	}
	return b.cells[offset], true
}

// ColorAt returns the color at offset.
func (b *Buffer) ColorAt(offset int) (int, bool) {
	if !b.validOffset(offset) {
		return 0, false
	}
	return b.colors[offset], true
}

// CharAtXY returns the character at column x, row y.
func (b *Buffer) CharAtXY(x, y int) (rune, bool) {
	return b.CharAt(b.Offset(x, y))
}

// ColorAtXY returns the color at column x, row y.
func (b *Buffer) ColorAtXY(x, y int) (int, bool) {
	return b.ColorAt(b.Offset(x, y))
}

// Cells returns a copy of screen RAM.
func (b *Buffer) Cells() []rune {
	out := make([]rune, len(b.cells))
	copy(out, b.cells)
	return out
}

// Colors returns a copy of color RAM.
func (b *Buffer) Colors() []int {
	out := make([]int, len(b.colors))
	copy(out, b.colors)
	return out
}

// Row returns row y as a string, or "" when y is out of range.
func (b *Buffer) Row(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	start := y * b.width
	return string(b.cells[start : start+b.width])
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{
		width:  b.width,
		height: b.height,
		cells:  b.Cells(),
		colors: b.Colors(),
	}
}
