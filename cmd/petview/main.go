// Command petview shows PETSCII screens in the local terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/logging"
	"github.com/stlalpha/petscii/internal/scheduler"
	"github.com/stlalpha/petscii/internal/screen"
	"github.com/stlalpha/petscii/internal/source"
	"github.com/stlalpha/petscii/internal/station"
	"github.com/stlalpha/petscii/internal/viewer"
	"github.com/stlalpha/petscii/internal/watcher"
)

const version = "1.0"

func main() {
	configPath := flag.String("config", "configs", "Directory containing config.json")
	screenName := flag.String("screen", "", "Screen to show first")
	testPicture := flag.Bool("test-picture", false, "Start with the character map test picture")
	rotate := flag.Bool("rotate", false, "Follow the configured rotation schedule")
	debug := flag.Bool("debug", false, "Write debug logs to petview.log")
	flag.Parse()

	// The terminal belongs to the viewer, so logs go to a file or nowhere.
	if *debug {
		f, err := tea.LogToFile("petview.log", "petview")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	logging.Configure(*debug)

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := station.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	screens, err := source.LoadAll(ctx, cfg)
	if err != nil {
		log.Printf("WARN: Some screens failed to load: %v", err)
	}
	st.Set(screens)

	if *screenName != "" {
		if err := st.Show(*screenName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *testPicture || len(screens) == 0 {
		st.Apply(func(d *screen.Display) {
			d.Reset()
			d.PrintTestPicture(version)
		})
	}

	if cfg.WatchScreens {
		if w, err := watcher.New(cfg, *configPath, st); err == nil {
			defer w.Stop()
		} else {
			log.Printf("WARN: Screen file watching disabled: %v", err)
		}
	}
	if *rotate {
		sched := scheduler.NewScheduler(cfg.RotationSchedule, st, source.CommandRefresher(cfg), "")
		go sched.Start(ctx)
	}

	p := tea.NewProgram(viewer.New(st, version), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
