package screen

import (
	"fmt"

	"github.com/stlalpha/petscii/internal/charset"
	"github.com/stlalpha/petscii/internal/palette"
)

// Display defaults.
const (
	DefaultBorderColor     = palette.LightBlue
	DefaultBackgroundColor = palette.Blue
	DefaultCursorColor     = palette.LightBlue
)

// Display is a Buffer plus the state a renderer needs around it: border,
// background and cursor colors and the RAM enable switches.
type Display struct {
	*Buffer

	borderColor     int
	backgroundColor int
	cursorColor     int

	screenRAMEnabled bool
	colorRAMEnabled  bool
}

// NewDisplay creates a display with the default colors and both RAMs enabled.
func NewDisplay(width, height int) (*Display, error) {
	buf, err := New(width, height)
	if err != nil {
		return nil, err
	}
	return &Display{
		Buffer:           buf,
		borderColor:      DefaultBorderColor,
		backgroundColor:  DefaultBackgroundColor,
		cursorColor:      DefaultCursorColor,
		screenRAMEnabled: true,
		colorRAMEnabled:  true,
	}, nil
}

// Reset clears the screen to spaces in the cursor color.
func (d *Display) Reset() {
	d.FillChar(DefaultChar)
	d.FillColor(d.cursorColor)
}

// BorderColor returns the border color.
func (d *Display) BorderColor() int { return d.borderColor }

// BackgroundColor returns the background color.
func (d *Display) BackgroundColor() int { return d.backgroundColor }

// CursorColor returns the cursor color.
func (d *Display) CursorColor() int { return d.cursorColor }

// SetBorderColor sets the border color; invalid colors are ignored.
func (d *Display) SetBorderColor(color int) {
	if palette.Valid(color) {
		d.borderColor = color
	}
}

// SetBackgroundColor sets the background color; invalid colors are ignored.
func (d *Display) SetBackgroundColor(color int) {
	if palette.Valid(color) {
		d.backgroundColor = color
	}
}

// SetCursorColor sets the cursor color; invalid colors are ignored.
func (d *Display) SetCursorColor(color int) {
	if palette.Valid(color) {
		d.cursorColor = color
	}
}

// ScreenRAMEnabled reports whether screen contents are drawn at all.
func (d *Display) ScreenRAMEnabled() bool { return d.screenRAMEnabled }

// SetScreenRAMEnabled switches drawing of the screen contents.
func (d *Display) SetScreenRAMEnabled(enabled bool) { d.screenRAMEnabled = enabled }

// ColorRAMEnabled reports whether cell colors are used. When disabled every
// cell is drawn in the cursor color.
func (d *Display) ColorRAMEnabled() bool { return d.colorRAMEnabled }

// SetColorRAMEnabled switches use of color RAM.
func (d *Display) SetColorRAMEnabled(enabled bool) { d.colorRAMEnabled = enabled }

// CellColor returns the color a renderer should use for offset.
func (d *Display) CellColor(offset int) int {
	if !d.colorRAMEnabled {
		return d.cursorColor
	}
	c, _ := d.ColorAt(offset)
	return c
}

// Clone returns a deep copy of d.
func (d *Display) Clone() *Display {
	cp := *d
	cp.Buffer = d.Buffer.Clone()
	return &cp
}

// PrintTestPicture draws a title and both character maps.
func (d *Display) PrintTestPicture(version string) {
	d.PrintTextAt(fmt.Sprintf("**** PETSCII %s ****", version), 6, 1, d.cursorColor)

	d.PrintTextAt("CHARACTER MAP UPPERCASE:", 0, 4, d.cursorColor)
	d.printTable(charset.Uppercase, 6)

	d.PrintTextAt("CHARACTER MAP LOWERCASE:", 0, 15, d.cursorColor)
	d.printTable(charset.Lowercase, 17)
}

func (d *Display) printTable(set charset.Set, row int) {
	offset := row * d.Width()
	for code := 0; code < charset.TableSize; code++ {
		d.PutChar(charset.Char(set, uint8(code)), offset)
		d.PutColor(d.cursorColor, offset)
		offset++
	}
}
