package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stlalpha/petscii/internal/palette"
	"github.com/stlalpha/petscii/internal/render"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))
)

const helpText = "tab next | i type | arrows pen | +/- color | c clear | p test | b border | a ascii | ctrl+y copy | q quit"

// View implements tea.Model.
func (m Model) View() string {
	d, _ := m.station.Snapshot()
	opts := render.Options{Border: m.border, BorderX: render.DefaultBorderX, BorderY: render.DefaultBorderY, ASCII: m.ascii}

	current := m.station.Current()
	if current == "" {
		current = "-"
	}
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(palette.Hex(m.color))).Render("  ")
	title := titleStyle.Render(fmt.Sprintf(" PETSCII  screen: %s  pen: %d,%d  color: %s ",
		current, m.penX, m.penY, palette.Name(m.color)))

	var b strings.Builder
	b.WriteString(title + " " + swatch + "\n")
	b.WriteString(render.Frame(d, opts) + "\n")
	if m.mode == modeInput {
		b.WriteString(m.input.View() + "\n")
	} else {
		b.WriteString(helpStyle.Render(helpText) + "\n")
	}
	if m.message != "" {
		b.WriteString(messageStyle.Render(m.message))
	}
	return b.String()
}
