package charset

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Replacement is written for input characters that have no place in either
// table.
const Replacement = '?'

// keyboardFallbacks maps ASCII characters missing from the tables to what the
// C64 keyboard produced for the same key.
var keyboardFallbacks = map[rune]rune{
	'^':  0x2191, // up arrow
	'_':  0x2190, // left arrow
	'`':  '\'',
	'\\': 0x00A3, // pound
	'|':  0x2502,
	'~':  '-',
	'\t': ' ',
	'\r': ' ',
	'€':  'E',
}

// Fold rewrites s so that every character is representable in the tables.
// Accents are stripped (é -> e), a few keyboard substitutions are applied and
// anything else becomes Replacement. Line feeds and the braces used by
// formatter tokens are kept as-is.
func Fold(s string) (string, error) {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, runes.Map(foldRune))
	out, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}
	return out, nil
}

func foldRune(r rune) rune {
	switch r {
	case '\n', '{', '}':
		return r
	}
	if Contains(r) {
		return r
	}
	if f, ok := keyboardFallbacks[r]; ok {
		return f
	}
	return Replacement
}
