// Package station owns the live display that every viewer watches. It holds
// the catalog of loaded screens, shows one at a time and tells subscribers
// when the display changes.
package station

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/logging"
	"github.com/stlalpha/petscii/internal/screen"
	"github.com/stlalpha/petscii/internal/source"
)

var (
	// ErrNoScreens is returned when there is nothing to show.
	ErrNoScreens = errors.New("no screens loaded")
	// ErrUnknownScreen is returned for a screen name not in the catalog.
	ErrUnknownScreen = errors.New("unknown screen")
)

// Station is safe for concurrent use.
type Station struct {
	mu      sync.Mutex
	display *screen.Display
	screens []source.Screen
	current int // index into screens, -1 when nothing is shown
	version uint64

	subs    map[int]chan struct{}
	nextSub int
}

// New creates a station with a blank display configured from cfg.
func New(cfg config.ServerConfig) (*Station, error) {
	d, err := screen.NewDisplay(cfg.ScreenWidth, cfg.ScreenHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to create display: %w", err)
	}
	d.SetBorderColor(cfg.BorderColor)
	d.SetBackgroundColor(cfg.BackgroundColor)
	d.SetCursorColor(cfg.CursorColor)
	d.Reset()
	return &Station{
		display: d,
		current: -1,
		subs:    make(map[int]chan struct{}),
	}, nil
}

// Set replaces the catalog. If the screen being shown is still present it is
// shown again from its new text; otherwise the first screen is shown.
func (s *Station) Set(screens []source.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.currentNameLocked()
	s.screens = append([]source.Screen(nil), screens...)
	s.current = -1
	if len(s.screens) == 0 {
		s.display.Reset()
		s.changedLocked()
		return
	}
	idx := s.indexLocked(prev)
	if idx < 0 {
		idx = 0
	}
	s.showLocked(idx)
}

// Update adds sc to the catalog or replaces the entry with the same name.
// The display is redrawn when sc is the screen being shown.
func (s *Station) Update(sc source.Screen) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(sc.Config.Name)
	if idx < 0 {
		s.screens = append(s.screens, sc)
		logging.Debug("Station: added screen %q", sc.Config.Name)
		if s.current < 0 {
			s.showLocked(len(s.screens) - 1)
		}
		return
	}
	s.screens[idx] = sc
	logging.Debug("Station: replaced screen %q", sc.Config.Name)
	if idx == s.current {
		s.showLocked(idx)
	}
}

// Show interprets the named screen onto a freshly reset display.
func (s *Station) Show(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.screens) == 0 {
		return ErrNoScreens
	}
	idx := s.indexLocked(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownScreen, name)
	}
	s.showLocked(idx)
	return nil
}

// Next shows the screen after the current one, wrapping around, and returns
// its name.
func (s *Station) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.screens) == 0 {
		return "", ErrNoScreens
	}
	idx := (s.current + 1) % len(s.screens)
	s.showLocked(idx)
	return s.screens[idx].Config.Name, nil
}

// Current returns the name of the screen being shown, or "".
func (s *Station) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentNameLocked()
}

// Names lists the catalog in rotation order.
func (s *Station) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.screens))
	for i, sc := range s.screens {
		names[i] = sc.Config.Name
	}
	return names
}

// Apply runs fn against the live display and notifies subscribers.
func (s *Station) Apply(fn func(d *screen.Display)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.display)
	s.changedLocked()
}

// Snapshot returns a copy of the display and the version it was taken at.
func (s *Station) Snapshot() (*screen.Display, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display.Clone(), s.version
}

// Version increases on every change to the display.
func (s *Station) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Subscribe returns a channel that receives a value after display changes,
// and a function that cancels the subscription. Notifications coalesce: a
// slow reader sees one pending value no matter how many changes happened.
func (s *Station) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Station) showLocked(idx int) {
	sc := s.screens[idx]
	s.current = idx
	s.display.Reset()

	cfg := sc.Config
	if cfg.Formatted {
		if err := s.display.PrintFormattedTextAtChecked(sc.Text, cfg.X, cfg.Y, cfg.Color); err != nil {
			log.Printf("WARN: Screen %q: %v", cfg.Name, err)
		}
	} else {
		s.display.PrintTextAt(sc.Text, cfg.X, cfg.Y, cfg.Color)
	}
	logging.Debug("Station: showing screen %q", cfg.Name)
	s.changedLocked()
}

func (s *Station) changedLocked() {
	s.version++
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Station) indexLocked(name string) int {
	if name == "" {
		return -1
	}
	for i, sc := range s.screens {
		if sc.Config.Name == name {
			return i
		}
	}
	return -1
}

func (s *Station) currentNameLocked() string {
	if s.current < 0 || s.current >= len(s.screens) {
		return ""
	}
	return s.screens[s.current].Config.Name
}
