// Package viewer is the local terminal view of a station: it shows the live
// display, steps through the screen rotation and lets the operator type
// formatted text straight onto the screen.
package viewer

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stlalpha/petscii/internal/palette"
	"github.com/stlalpha/petscii/internal/render"
	"github.com/stlalpha/petscii/internal/screen"
	"github.com/stlalpha/petscii/internal/station"
)

type viewerMode int

const (
	modeView viewerMode = iota
	modeInput
)

// stationChangedMsg is sent when the station display changes.
type stationChangedMsg struct{}

// Model is the BubbleTea model for the local viewer.
type Model struct {
	station *station.Station
	updates <-chan struct{}
	cancel  func()
	version string

	// Pen position and color for typed text.
	penX, penY int
	color      int

	border bool
	ascii  bool

	mode    viewerMode
	input   textinput.Model
	message string

	width  int
	height int

	copyText func(string) error
}

// New creates a viewer for st. version is shown on the test picture.
func New(st *station.Station, version string) Model {
	ti := textinput.New()
	ti.Placeholder = "{CLR}{COL:07}HELLO"
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Width = 40

	updates, cancel := st.Subscribe()
	return Model{
		station:  st,
		updates:  updates,
		cancel:   cancel,
		version:  version,
		color:    palette.White,
		border:   true,
		input:    ti,
		copyText: clipboard.WriteAll,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("PETSCII viewer"), waitForChange(m.updates))
}

func waitForChange(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-updates; !ok {
			return nil
		}
		return stationChangedMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case stationChangedMsg:
		return m, waitForChange(m.updates)

	case tea.KeyMsg:
		if m.mode == modeInput {
			return m.updateInput(msg)
		}
		return m.updateView(msg)
	}
	return m, nil
}

func (m Model) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.cancel()
		return m, tea.Quit

	case "tab", "n":
		name, err := m.station.Next()
		if err != nil {
			m.message = err.Error()
		} else {
			m.message = "Showing " + name
		}

	case "enter", "i":
		m.mode = modeInput
		m.input.SetValue("")
		return m, m.input.Focus()

	case "up":
		m.movePen(0, -1)
	case "down":
		m.movePen(0, 1)
	case "left":
		m.movePen(-1, 0)
	case "right":
		m.movePen(1, 0)

	case "+", "=":
		m.color = (m.color + 1) % palette.Count
	case "-":
		m.color = (m.color + palette.Count - 1) % palette.Count

	case "c":
		m.station.Apply(func(d *screen.Display) { d.Reset() })
		m.penX, m.penY = 0, 0
		m.message = "Screen cleared"

	case "p":
		m.station.Apply(func(d *screen.Display) {
			d.Reset()
			d.PrintTestPicture(m.version)
		})

	case "b":
		m.border = !m.border
	case "a":
		m.ascii = !m.ascii

	case "ctrl+y":
		d, _ := m.station.Snapshot()
		if err := m.copyText(render.Plain(d, m.ascii)); err != nil {
			m.message = fmt.Sprintf("Copy failed: %v", err)
		} else {
			m.message = "Screen copied to clipboard"
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = modeView
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		text := m.input.Value()
		m.mode = modeView
		m.input.Blur()
		if text == "" {
			return m, nil
		}
		var ferr *screen.FormatError
		if err := m.printAtPen(text); errors.As(err, &ferr) {
			m.message = ferr.Error()
		}
		m.movePen(-m.penX, 1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// printAtPen interprets text at the pen. A formatting error leaves the
// diagnostic on the display and is returned.
func (m *Model) printAtPen(text string) error {
	var err error
	m.station.Apply(func(d *screen.Display) {
		err = d.PrintFormattedTextAtChecked(text, m.penX, m.penY, m.color)
	})
	return err
}

func (m *Model) movePen(dx, dy int) {
	d, _ := m.station.Snapshot()
	m.penX = clamp(m.penX+dx, d.Width())
	m.penY = (m.penY + dy + d.Height()) % d.Height()
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
