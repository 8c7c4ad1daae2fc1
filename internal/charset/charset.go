// Package charset provides the two 256-entry C64 character tables
// (uppercase/graphics and lowercase/uppercase) indexed by screen code.
//
// Codes 0-127 map to their closest Unicode character: ASCII where one exists,
// box drawing and block elements, or "Symbols for Legacy Computing" otherwise.
// Codes 128-255 are the hardware reverse-video glyphs and have no Unicode
// counterpart, so they live in the private use area at U+E000+code (uppercase)
// and U+E100+code (lowercase), the layout used by the C64 Pro Mono font.
package charset

// Set identifies one of the two character tables.
type Set int

const (
	Uppercase Set = iota // uppercase/graphics, the power-on character set
	Lowercase            // lowercase/uppercase
)

func (s Set) String() string {
	switch s {
	case Uppercase:
		return "uppercase"
	case Lowercase:
		return "lowercase"
	default:
		return "unknown"
	}
}

// TableSize is the number of entries in each character table.
const TableSize = 256

const (
	reverseBit    = 128
	upperReversed = 0xE000
	lowerReversed = 0xE100
)

// Screen codes 0x00-0x3F are shared by both sets except for the letters.
var commonLow = [64]rune{
	'@', 'A', 'B', 'C', 'D', 'E', 'F', 'G',
	'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O',
	'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W',
	'X', 'Y', 'Z', '[', 0x00A3, ']', 0x2191, 0x2190,
	' ', '!', '"', '#', '$', '%', '&', '\'',
	'(', ')', '*', '+', ',', '-', '.', '/',
	'0', '1', '2', '3', '4', '5', '6', '7',
	'8', '9', ':', ';', '<', '=', '>', '?',
}

// Screen codes 0x40-0x5F of the uppercase/graphics set.
var upperGraphics = [32]rune{
	0x2500, 0x2660, 0x1FB72, 0x1FB78, 0x1FB77, 0x1FB76, 0x1FB7A, 0x1FB71,
	0x1FB74, 0x256E, 0x2570, 0x256F, 0x1FB7C, 0x2572, 0x2571, 0x1FB7D,
	0x1FB7E, 0x25CF, 0x1FB7B, 0x2665, 0x1FB70, 0x256D, 0x2573, 0x25CB,
	0x2663, 0x1FB75, 0x2666, 0x253C, 0x1FB8C, 0x2502, 0x03C0, 0x25E5,
}

// Screen codes 0x60-0x7F, shared by both sets except for 0x7A.
var blockGraphics = [32]rune{
	0x00A0, 0x258C, 0x2584, 0x2594, 0x2581, 0x258F, 0x2592, 0x2595,
	0x1FB8F, 0x25E4, 0x1FB87, 0x251C, 0x2597, 0x2514, 0x2510, 0x2582,
	0x250C, 0x2534, 0x252C, 0x2524, 0x258E, 0x258D, 0x1FB88, 0x1FB82,
	0x1FB83, 0x2583, 0x1FB7F, 0x2596, 0x259D, 0x2518, 0x2598, 0x259A,
}

var (
	upperTable = buildUppercase()
	lowerTable = buildLowercase()

	upperIndex = indexOf(&upperTable)
	lowerIndex = indexOf(&lowerTable)
)

func buildUppercase() [TableSize]rune {
	var t [TableSize]rune
	copy(t[0x00:], commonLow[:])
	copy(t[0x40:], upperGraphics[:])
	copy(t[0x60:], blockGraphics[:])
	fillReversed(&t, upperReversed)
	return t
}

func buildLowercase() [TableSize]rune {
	var t [TableSize]rune
	copy(t[0x00:], commonLow[:])
	for i := 1; i <= 26; i++ {
		t[i] = rune('a' + i - 1)
		t[0x40+i] = rune('A' + i - 1)
	}
	t[0x40] = 0x2500
	t[0x5B] = 0x253C
	t[0x5C] = 0x1FB8C
	t[0x5D] = 0x2502
	t[0x5E] = 0x1FB96
	t[0x5F] = 0x1FB98
	copy(t[0x60:], blockGraphics[:])
	t[0x7A] = 0x2713
	fillReversed(&t, lowerReversed)
	return t
}

func fillReversed(t *[TableSize]rune, base rune) {
	for code := reverseBit; code < TableSize; code++ {
		t[code] = base + rune(code)
	}
}

func indexOf(t *[TableSize]rune) map[rune]int {
	idx := make(map[rune]int, TableSize)
	for i, r := range t {
		if _, dup := idx[r]; !dup {
			idx[r] = i
		}
	}
	return idx
}

// Table returns a copy of the requested character table.
func Table(set Set) [TableSize]rune {
	if set == Lowercase {
		return lowerTable
	}
	return upperTable
}

// Char returns the character for screen code in set.
func Char(set Set, code uint8) rune {
	if set == Lowercase {
		return lowerTable[code]
	}
	return upperTable[code]
}

// Lookup finds r in the uppercase table first, then the lowercase table.
func Lookup(r rune) (Set, int, bool) {
	if i, ok := upperIndex[r]; ok {
		return Uppercase, i, true
	}
	if i, ok := lowerIndex[r]; ok {
		return Lowercase, i, true
	}
	return Uppercase, 0, false
}

// Reverse returns the reverse-video counterpart of r: the character 128
// positions further (mod 256) in whichever table contains r. Characters in
// neither table come back unchanged.
func Reverse(r rune) rune {
	set, i, ok := Lookup(r)
	if !ok {
		return r
	}
	return Char(set, uint8((i+reverseBit)%TableSize))
}

// ReverseString applies Reverse to every rune of s.
func ReverseString(s string) string {
	out := []rune(s)
	for i, r := range out {
		out[i] = Reverse(r)
	}
	return string(out)
}

// IsReversed reports whether r is one of the reverse-video glyphs.
func IsReversed(r rune) bool {
	_, i, ok := Lookup(r)
	return ok && i >= reverseBit
}

// Contains reports whether r appears in either table.
func Contains(r rune) bool {
	_, _, ok := Lookup(r)
	return ok
}
