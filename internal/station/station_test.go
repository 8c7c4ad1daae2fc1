package station

import (
	"errors"
	"sync"
	"testing"

	"github.com/stlalpha/petscii/internal/charset"
	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/palette"
	"github.com/stlalpha/petscii/internal/screen"
	"github.com/stlalpha/petscii/internal/source"
)

func newTestStation(t *testing.T) *Station {
	t.Helper()
	cfg := config.Default()
	cfg.ScreenWidth, cfg.ScreenHeight = 10, 3
	st, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return st
}

func scr(name, text string) source.Screen {
	return source.Screen{Config: config.ScreenConfig{Name: name, Color: palette.White, Formatted: true}, Text: text}
}

func row(st *Station, y int) string {
	d, _ := st.Snapshot()
	return d.Row(y)
}

func TestNewInvalidSize(t *testing.T) {
	cfg := config.Default()
	cfg.ScreenWidth = 0
	if _, err := New(cfg); !errors.Is(err, screen.ErrInvalidDimensions) {
		t.Errorf("error = %v, want ErrInvalidDimensions", err)
	}
}

func TestEmptyStation(t *testing.T) {
	st := newTestStation(t)
	if err := st.Show("x"); !errors.Is(err, ErrNoScreens) {
		t.Errorf("Show error = %v", err)
	}
	if _, err := st.Next(); !errors.Is(err, ErrNoScreens) {
		t.Errorf("Next error = %v", err)
	}
	if st.Current() != "" {
		t.Errorf("Current = %q", st.Current())
	}
}

func TestSetShowsFirstScreen(t *testing.T) {
	st := newTestStation(t)
	st.Set([]source.Screen{scr("a", "AAA"), scr("b", "BBB")})

	if st.Current() != "a" {
		t.Errorf("Current = %q, want a", st.Current())
	}
	if got := row(st, 0); got != "AAA       " {
		t.Errorf("row 0 = %q", got)
	}
}

func TestShowAndNext(t *testing.T) {
	st := newTestStation(t)
	st.Set([]source.Screen{scr("a", "AAA"), scr("b", "{CDN}BBB"), scr("c", "CCC")})

	if err := st.Show("b"); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if got := row(st, 0); got != "          " {
		t.Errorf("row 0 should be reset, got %q", got)
	}
	if got := row(st, 1); got != "BBB       " {
		t.Errorf("row 1 = %q", got)
	}

	name, err := st.Next()
	if err != nil || name != "c" {
		t.Fatalf("Next = %q, %v", name, err)
	}
	name, _ = st.Next()
	if name != "a" {
		t.Errorf("Next should wrap to a, got %q", name)
	}

	if err := st.Show("zzz"); !errors.Is(err, ErrUnknownScreen) {
		t.Errorf("Show unknown error = %v", err)
	}
}

func TestUnformattedScreenKeepsBraces(t *testing.T) {
	st := newTestStation(t)
	raw := scr("raw", "{CLR}")
	raw.Config.Formatted = false
	st.Set([]source.Screen{raw})
	if got := row(st, 0); got != "{CLR}     " {
		t.Errorf("row 0 = %q", got)
	}
}

func TestBrokenScreenShowsDiagnostic(t *testing.T) {
	st := newTestStation(t)
	st.Set([]source.Screen{scr("bad", "AB{RON")})

	want := []rune(charset.ReverseString("PARSING ERROR AT POSITION 7"))[:10]
	if got := row(st, 0); got != string(want) {
		t.Errorf("Row(0) = %q, want %q", got, string(want))
	}
}

func TestScreenPosition(t *testing.T) {
	st := newTestStation(t)
	s := scr("pos", "X")
	s.Config.X, s.Config.Y = 3, 2
	st.Set([]source.Screen{s})
	if got := row(st, 2); got != "   X      " {
		t.Errorf("row 2 = %q", got)
	}
}

func TestUpdateRedrawsCurrent(t *testing.T) {
	st := newTestStation(t)
	st.Set([]source.Screen{scr("a", "OLD"), scr("b", "BBB")})

	st.Update(scr("a", "NEW"))
	if got := row(st, 0); got != "NEW       " {
		t.Errorf("row 0 = %q after update", got)
	}

	st.Update(scr("b", "XXX"))
	if got := row(st, 0); got != "NEW       " {
		t.Errorf("updating another screen should not redraw, got %q", got)
	}

	st.Update(scr("d", "DDD"))
	if names := st.Names(); len(names) != 3 || names[2] != "d" {
		t.Errorf("Names = %v", names)
	}
}

func TestUpdateOnEmptyShows(t *testing.T) {
	st := newTestStation(t)
	st.Update(scr("only", "HI"))
	if st.Current() != "only" {
		t.Errorf("Current = %q", st.Current())
	}
}

func TestSetKeepsCurrentByName(t *testing.T) {
	st := newTestStation(t)
	st.Set([]source.Screen{scr("a", "A"), scr("b", "B")})
	st.Show("b")
	st.Set([]source.Screen{scr("x", "X"), scr("b", "B2")})
	if st.Current() != "b" || row(st, 0) != "B2        " {
		t.Errorf("Current = %q row = %q", st.Current(), row(st, 0))
	}
	st.Set(nil)
	if st.Current() != "" {
		t.Errorf("Current = %q after clearing", st.Current())
	}
}

func TestApplyAndSnapshotIsolation(t *testing.T) {
	st := newTestStation(t)
	before := st.Version()
	st.Apply(func(d *screen.Display) {
		d.PrintFormattedText("{RON}HI", 0, palette.Red)
	})
	snap, v := st.Snapshot()
	if v != before+1 {
		t.Errorf("version = %d, want %d", v, before+1)
	}
	st.Apply(func(d *screen.Display) { d.PutChar('Z', 0) })
	if ch, _ := snap.CharAt(0); ch == 'Z' {
		t.Error("snapshot changed after Apply")
	}
}

func TestSubscribeCoalescesAndCancels(t *testing.T) {
	st := newTestStation(t)
	ch, cancel := st.Subscribe()

	st.Apply(func(*screen.Display) {})
	st.Apply(func(*screen.Display) {})

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications should coalesce")
	default:
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}
	st.Apply(func(*screen.Display) {})
}

func TestConcurrentUse(t *testing.T) {
	st := newTestStation(t)
	st.Set([]source.Screen{scr("a", "A"), scr("b", "B")})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ch, cancel := st.Subscribe()
			defer cancel()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					st.Next()
				} else {
					st.Snapshot()
				}
				select {
				case <-ch:
				default:
				}
			}
		}(i)
	}
	wg.Wait()
}
