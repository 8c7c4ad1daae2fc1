// Package watcher reloads file-backed screens when their files change.
package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/logging"
	"github.com/stlalpha/petscii/internal/source"
)

// DefaultDebounce is how long a file must be quiet before it is reloaded.
const DefaultDebounce = 500 * time.Millisecond

// Updater receives reloaded screens.
type Updater interface {
	Update(sc source.Screen)
}

// Watcher watches the screens directory and config.json.
type Watcher struct {
	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	done       chan struct{}
	cfg        config.ServerConfig
	configPath string
	target     Updater
	debounce   time.Duration
	timers     map[string]*time.Timer

	// OnReload, when set, is called after each reload attempt.
	OnReload func(name string, err error)
}

// New starts watching cfg.ScreensPath, and configPath for config.json
// changes when configPath is not empty.
func New(cfg config.ServerConfig, configPath string, target Updater) (*Watcher, error) {
	return newWatcher(cfg, configPath, target, DefaultDebounce)
}

func newWatcher(cfg config.ServerConfig, configPath string, target Updater, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		watcher:    fw,
		done:       make(chan struct{}),
		cfg:        cfg,
		configPath: configPath,
		target:     target,
		debounce:   debounce,
		timers:     make(map[string]*time.Timer),
	}

	if err := fw.Add(cfg.ScreensPath); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.ScreensPath, err)
	}
	log.Printf("INFO: Watching %s for screen changes (auto-reload enabled)", cfg.ScreensPath)

	if configPath != "" && filepath.Clean(configPath) != filepath.Clean(cfg.ScreensPath) {
		if err := fw.Add(configPath); err != nil {
			log.Printf("WARN: Failed to watch %s: %v", configPath, err)
		}
	}

	go w.watchLoop(fw)
	return w, nil
}

// Stop stops the watcher and cancels pending reloads.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher == nil {
		return
	}
	close(w.done)
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
	w.watcher.Close()
	w.watcher = nil
	log.Printf("INFO: Screen file watcher stopped")
}

func (w *Watcher) watchLoop(fw *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				w.schedule(event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("ERROR: Screen file watcher error: %v", err)

		case <-w.done:
			return
		}
	}
}

// schedule debounces reloads per file, so a burst of writes to one file does
// not delay or drop the reload of another.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher == nil {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		stopped := w.watcher == nil
		w.mu.Unlock()
		if !stopped {
			w.handleChange(path)
		}
	})
}

func (w *Watcher) handleChange(path string) {
	path = filepath.Clean(path)
	if w.configPath != "" && path == filepath.Join(filepath.Clean(w.configPath), "config.json") {
		log.Printf("WARN: config.json changed - server restart required for changes to take effect")
		return
	}

	matched := false
	for _, sc := range w.cfg.Screens {
		file := w.cfg.ScreenFile(sc)
		if file == "" || filepath.Clean(file) != path {
			continue
		}
		matched = true
		w.reload(sc)
	}
	if !matched {
		logging.Debug("Ignoring change to %s", path)
	}
}

func (w *Watcher) reload(sc config.ScreenConfig) {
	log.Printf("INFO: Reloading screen '%s'...", sc.Name)
	s, err := source.Load(context.Background(), w.cfg, sc)
	if err != nil {
		log.Printf("ERROR: Failed to reload screen '%s': %v", sc.Name, err)
	} else {
		w.target.Update(s)
		log.Printf("INFO: Screen '%s' reloaded successfully", sc.Name)
	}
	w.mu.Lock()
	onReload := w.OnReload
	w.mu.Unlock()
	if onReload != nil {
		onReload(sc.Name, err)
	}
}
