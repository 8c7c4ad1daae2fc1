package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/muesli/termenv"

	"github.com/stlalpha/petscii/internal/logging"
	"github.com/stlalpha/petscii/internal/render"
	"github.com/stlalpha/petscii/internal/station"
	"github.com/stlalpha/petscii/internal/terminalio"
)

// Keys that end a remote viewing session.
const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
)

const (
	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	resetStyle  = "\x1b[0m"
)

// Handler streams the station's display to remote viewers.
type Handler struct {
	Station  *station.Station
	Registry *Registry
	Options  render.Options
	// Profile is the color profile for UTF-8 clients. CP437 and ASCII
	// clients get the 16-color ANSI profile.
	Profile termenv.Profile
}

// Serve registers s, draws the current frame to rw and redraws it whenever
// the station changes. It returns when the viewer presses q, Ctrl-C or
// Ctrl-D, when the input side closes, or when ctx is done.
func (h *Handler) Serve(ctx context.Context, rw io.ReadWriter, s *Session) error {
	if err := h.Registry.Register(s); err != nil {
		fmt.Fprint(rw, "Too many viewers connected, try again later.\r\n")
		return fmt.Errorf("session %s from %s refused: %w", s.ID, s.RemoteAddr, err)
	}
	defer h.Registry.Unregister(s.ID)
	log.Printf("INFO: %s viewer %s connected from %s (%d active)", s.Protocol, s.ID, s.RemoteAddr, h.Registry.Count())
	defer log.Printf("INFO: %s viewer %s disconnected after %d frame(s)", s.Protocol, s.ID, s.Frames())

	updates, cancel := h.Station.Subscribe()
	defer cancel()

	quit := make(chan error, 1)
	go readKeys(rw, quit)

	mode := terminalio.ModeForTerm(s.Term)
	out := terminalio.NewWriter(rw, mode)
	profile := h.Profile
	if mode != terminalio.OutputModeUTF8 {
		profile = termenv.ANSI
	}
	baseOpts := h.Options
	baseOpts.ASCII = baseOpts.ASCII || mode == terminalio.OutputModeASCII
	logging.Debug("Session %s: term %q, output mode %s", s.ID, s.Term, mode)

	if _, err := io.WriteString(out, clearScreen+hideCursor); err != nil {
		return err
	}
	defer io.WriteString(out, resetStyle+showCursor+"\r\n")

	renderer := render.NewRenderer(out, profile)
	var (
		drawn   uint64
		started bool
	)
	draw := func() error {
		snap, version := h.Station.Snapshot()
		if started && version == drawn {
			return nil
		}
		opts := baseOpts
		opts.Renderer = renderer
		frame := render.Frame(snap, opts)
		if _, err := io.WriteString(out, cursorHome+strings.ReplaceAll(frame, "\n", "\r\n")); err != nil {
			return err
		}
		drawn, started = version, true
		s.countFrame()
		logging.Debug("Session %s: sent frame version %d", s.ID, version)
		return nil
	}

	if err := draw(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-quit:
			if err != nil && !errors.Is(err, io.EOF) {
				logging.Debug("Session %s: input closed: %v", s.ID, err)
			}
			return nil
		case _, ok := <-updates:
			if !ok {
				return nil
			}
			if err := draw(); err != nil {
				return err
			}
		}
	}
}

// readKeys reports on quit when the viewer asks to leave or input ends.
func readKeys(r io.Reader, quit chan<- error) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			switch b {
			case 'q', 'Q', keyCtrlC, keyCtrlD:
				quit <- nil
				return
			}
		}
		if err != nil {
			quit <- err
			return
		}
	}
}
