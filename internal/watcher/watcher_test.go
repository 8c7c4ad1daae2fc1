package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/source"
)

type recorder struct {
	mu      sync.Mutex
	screens []source.Screen
}

func (r *recorder) Update(sc source.Screen) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens = append(r.screens, sc)
}

func (r *recorder) last() (source.Screen, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.screens) == 0 {
		return source.Screen{}, 0
	}
	return r.screens[len(r.screens)-1], len(r.screens)
}

type reload struct {
	name string
	err  error
}

func startWatcher(t *testing.T, cfg config.ServerConfig, configPath string, target Updater) (*Watcher, chan reload) {
	t.Helper()
	w, err := newWatcher(cfg, configPath, target, 20*time.Millisecond)
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	t.Cleanup(w.Stop)
	reloads := make(chan reload, 16)
	w.mu.Lock()
	w.OnReload = func(name string, err error) { reloads <- reload{name, err} }
	w.mu.Unlock()
	return w, reloads
}

func waitReload(t *testing.T, reloads chan reload) reload {
	t.Helper()
	select {
	case r := <-reloads:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	return reload{}
}

func testConfig(t *testing.T) config.ServerConfig {
	t.Helper()
	cfg := config.Default()
	cfg.ScreensPath = t.TempDir()
	cfg.Screens = []config.ScreenConfig{
		{Name: "welcome", File: "welcome.txt", Formatted: true},
		{Name: "clock", Command: "date"},
	}
	return cfg
}

func TestReloadOnWrite(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.ScreensPath, "welcome.txt")
	os.WriteFile(path, []byte("OLD"), 0644)

	rec := &recorder{}
	_, reloads := startWatcher(t, cfg, "", rec)

	if err := os.WriteFile(path, []byte("NEW\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r := waitReload(t, reloads)
	if r.name != "welcome" || r.err != nil {
		t.Fatalf("reload = %+v", r)
	}
	sc, n := rec.last()
	if n == 0 || sc.Text != "NEW" {
		t.Errorf("last update = %+v (%d)", sc, n)
	}
}

func TestBurstIsDebounced(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(cfg.ScreensPath, "welcome.txt")

	rec := &recorder{}
	_, reloads := startWatcher(t, cfg, "", rec)

	for i := 0; i < 5; i++ {
		os.WriteFile(path, []byte("X"), 0644)
	}
	waitReload(t, reloads)
	select {
	case r := <-reloads:
		t.Errorf("unexpected second reload %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUnrelatedFileIgnored(t *testing.T) {
	cfg := testConfig(t)
	rec := &recorder{}
	_, reloads := startWatcher(t, cfg, "", rec)

	os.WriteFile(filepath.Join(cfg.ScreensPath, "notes.txt"), []byte("x"), 0644)
	select {
	case r := <-reloads:
		t.Errorf("unexpected reload %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStopIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	w, err := newWatcher(cfg, "", &recorder{}, 10*time.Millisecond)
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	w.Stop()
	w.Stop()
}

func TestNewMissingDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.ScreensPath = filepath.Join(t.TempDir(), "missing")
	if _, err := New(cfg, "", &recorder{}); err == nil {
		t.Error("expected error for missing screens directory")
	}
}
