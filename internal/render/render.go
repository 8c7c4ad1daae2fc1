// Package render turns a screen.Display into text for a terminal.
//
// Cells are drawn row by row in runs of equal color, the same batching a
// pixel renderer uses to issue one text draw per color change. Reverse-video
// glyphs have no terminal font, so they are drawn as their plain glyph with
// foreground and background swapped.
package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/stlalpha/petscii/internal/charset"
	"github.com/stlalpha/petscii/internal/palette"
	"github.com/stlalpha/petscii/internal/screen"
)

// Default border thickness in cells.
const (
	DefaultBorderX = 4
	DefaultBorderY = 2
)

// Options control Frame output.
type Options struct {
	// Renderer used for styles. nil means lipgloss' default renderer, which
	// detects the color profile of stdout.
	Renderer *lipgloss.Renderer
	// Border draws a frame of BorderX columns and BorderY rows around the
	// screen in the border color.
	Border  bool
	BorderX int
	BorderY int
	// ASCII replaces graphics characters with ASCII approximations for
	// clients that cannot display Unicode.
	ASCII bool
}

// DefaultOptions draws the border at the default size.
func DefaultOptions() Options {
	return Options{Border: true, BorderX: DefaultBorderX, BorderY: DefaultBorderY}
}

// Run is a horizontal stretch of cells in one color.
type Run struct {
	X     int
	Color int
	Cells []rune
}

// Runs splits row y of d into runs of equal effective color.
func Runs(d *screen.Display, y int) []Run {
	if y < 0 || y >= d.Height() {
		return nil
	}
	var runs []Run
	width := d.Width()
	for x := 0; x < width; x++ {
		offset := d.Offset(x, y)
		ch, _ := d.CharAt(offset)
		color := d.CellColor(offset)
		if n := len(runs); n > 0 && runs[n-1].Color == color {
			runs[n-1].Cells = append(runs[n-1].Cells, ch)
			continue
		}
		runs = append(runs, Run{X: x, Color: color, Cells: []rune{ch}})
	}
	return runs
}

// Frame renders d as lines separated by "\n".
func Frame(d *screen.Display, opts Options) string {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	bx, by := 0, 0
	if opts.Border {
		bx, by = opts.BorderX, opts.BorderY
	}

	border := r.NewStyle().Background(lipgloss.Color(palette.Hex(d.BorderColor())))
	fullWidth := d.Width() + 2*bx
	borderRow := border.Render(strings.Repeat(" ", fullWidth))
	borderSide := border.Render(strings.Repeat(" ", bx))

	lines := make([]string, 0, d.Height()+2*by)
	for i := 0; i < by; i++ {
		lines = append(lines, borderRow)
	}
	for y := 0; y < d.Height(); y++ {
		var b strings.Builder
		if bx > 0 {
			b.WriteString(borderSide)
		}
		if d.ScreenRAMEnabled() {
			writeRow(&b, r, d, y, opts.ASCII)
		} else {
			b.WriteString(border.Render(strings.Repeat(" ", d.Width())))
		}
		if bx > 0 {
			b.WriteString(borderSide)
		}
		lines = append(lines, b.String())
	}
	for i := 0; i < by; i++ {
		lines = append(lines, borderRow)
	}
	return strings.Join(lines, "\n")
}

// NewRenderer returns a renderer writing to w with a fixed color profile.
// Remote sessions cannot be probed the way a local tty can, so the caller
// picks the profile.
func NewRenderer(w io.Writer, profile termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)
	return r
}

// Plain renders d without border or colors, reverse glyphs shown as their
// plain counterpart.
func Plain(d *screen.Display, ascii bool) string {
	r := NewRenderer(io.Discard, termenv.Ascii)
	return ansi.Strip(Frame(d, Options{Renderer: r, ASCII: ascii}))
}

func writeRow(b *strings.Builder, r *lipgloss.Renderer, d *screen.Display, y int, ascii bool) {
	bg := palette.Hex(d.BackgroundColor())
	for _, run := range Runs(d, y) {
		fg := palette.Hex(run.Color)
		normal := r.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg))
		reversed := r.NewStyle().Foreground(lipgloss.Color(bg)).Background(lipgloss.Color(fg))

		var seg strings.Builder
		segReversed := false
		flush := func() {
			if seg.Len() == 0 {
				return
			}
			if segReversed {
				b.WriteString(reversed.Render(seg.String()))
			} else {
				b.WriteString(normal.Render(seg.String()))
			}
			seg.Reset()
		}

		for _, ch := range run.Cells {
			glyph, rev := Glyph(ch, ascii)
			if rev != segReversed {
				flush()
				segReversed = rev
			}
			seg.WriteRune(glyph)
		}
		flush()
	}
}

// Glyph returns the single-column character to draw for cell content ch and
// whether it must be drawn in reverse video.
func Glyph(ch rune, ascii bool) (rune, bool) {
	reversed := false
	if charset.IsReversed(ch) {
		ch = charset.Reverse(ch)
		reversed = true
	}
	if ascii {
		ch = ASCIIFallback(ch)
	}
	if runewidth.RuneWidth(ch) != 1 {
		ch = charset.Replacement
	}
	return ch, reversed
}

// asciiFallbackTable maps graphics characters to ASCII look-alikes.
var asciiFallbackTable = map[rune]rune{
	0x2500: '-', 0x2502: '|', 0x250C: '+', 0x2510: '+', 0x2514: '+', 0x2518: '+',
	0x251C: '+', 0x2524: '+', 0x252C: '+', 0x2534: '+', 0x253C: '+',
	0x256D: '+', 0x256E: '+', 0x256F: '+', 0x2570: '+',
	0x2571: '/', 0x2572: '\\', 0x2573: 'X',
	0x2660: '^', 0x2665: 'v', 0x2663: '&', 0x2666: '*',
	0x25CF: 'O', 0x25CB: 'o', 0x03C0: 'p',
	0x00A3: 'L', 0x2191: '^', 0x2190: '<', 0x00A0: ' ', 0x2713: 'v',
	0x2592: ':', 0x2584: '_', 0x2581: '_', 0x2582: '_', 0x2583: '_', 0x2594: '~',
	0x258C: '|', 0x258D: '|', 0x258E: '|', 0x258F: '|', 0x2595: '|',
}

// ASCIIFallback returns an ASCII look-alike for ch, or ch itself when it is
// already ASCII.
func ASCIIFallback(ch rune) rune {
	if ch < 0x80 {
		return ch
	}
	if f, ok := asciiFallbackTable[ch]; ok {
		return f
	}
	return '#'
}
