// Package palette holds the fixed 16-entry C64 color table.
// Color indices 0-15 are the only valid values anywhere in the screen model.
package palette

import "fmt"

// Count is the number of colors in the table.
const Count = 16

// Color indices (C64 order).
const (
	Black = iota
	White
	Red
	Cyan
	Violet
	Green
	Blue
	Yellow
	Orange
	Brown
	LightRed
	Grey1
	Grey2
	LightGreen
	LightBlue
	Grey3
)

// c64Colors maps color index to RGB hex, see http://www.c64-wiki.com/index.php/Color
var c64Colors = [Count]string{
	"#000000", // 00 black
	"#ffffff", // 01 white
	"#880000", // 02 red
	"#aaffee", // 03 cyan
	"#cc44cc", // 04 violet
	"#00cc55", // 05 green
	"#0000aa", // 06 blue
	"#eeee77", // 07 yellow
	"#dd8855", // 08 orange
	"#664400", // 09 brown
	"#ff7777", // 10 light red
	"#333333", // 11 grey 1
	"#777777", // 12 grey 2
	"#aaff66", // 13 light green
	"#0088ff", // 14 light blue
	"#bbbbbb", // 15 grey 3
}

var colorNames = [Count]string{
	"black", "white", "red", "cyan", "violet", "green", "blue", "yellow",
	"orange", "brown", "light red", "grey 1", "grey 2", "light green", "light blue", "grey 3",
}

// Valid reports whether color is an index into the table.
func Valid(color int) bool {
	return color >= 0 && color < Count
}

// Hex returns the "#rrggbb" value for color, or "" if color is not valid.
func Hex(color int) string {
	if !Valid(color) {
		return ""
	}
	return c64Colors[color]
}

// Name returns the human readable name for color.
func Name(color int) string {
	if !Valid(color) {
		return fmt.Sprintf("invalid(%d)", color)
	}
	return colorNames[color]
}

// RGB returns the red, green and blue components of color.
// Invalid colors return black.
func RGB(color int) (r, g, b uint8) {
	if !Valid(color) {
		return 0, 0, 0
	}
	var v uint32
	fmt.Sscanf(c64Colors[color], "#%06x", &v)
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}

// Lookup returns the index of the color with the given name (case sensitive,
// as returned by Name).
func Lookup(name string) (int, bool) {
	for i, n := range colorNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
