// Command petscii serves a rotating PETSCII screen to SSH and telnet viewers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gliderlabs/ssh"

	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/logging"
	"github.com/stlalpha/petscii/internal/render"
	"github.com/stlalpha/petscii/internal/scheduler"
	"github.com/stlalpha/petscii/internal/screen"
	"github.com/stlalpha/petscii/internal/session"
	"github.com/stlalpha/petscii/internal/source"
	"github.com/stlalpha/petscii/internal/sshserver"
	"github.com/stlalpha/petscii/internal/station"
	"github.com/stlalpha/petscii/internal/telnetserver"
	"github.com/stlalpha/petscii/internal/watcher"
)

const version = "1.0"

func main() {
	configPath := flag.String("config", "configs", "Directory containing config.json")
	logFilePath := flag.String("log-file", "", "Also append logs to this file")
	debug := flag.Bool("debug", false, "Enable debug logging (also PETSCII_DEBUG=1)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("petscii %s\n", version)
		return
	}

	log.SetOutput(os.Stderr)
	logging.Configure(*debug)
	if *logFilePath != "" {
		os.MkdirAll(filepath.Dir(*logFilePath), 0755)
		logFile, err := os.OpenFile(*logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("WARN: Failed to open log file %s: %v. Logging to stderr.", *logFilePath, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, logFile))
			defer logFile.Close()
		}
	}
	log.Printf("INFO: Starting PETSCII screen server %s", version)

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := station.New(cfg)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	screens, err := source.LoadAll(ctx, cfg)
	if err != nil {
		log.Printf("WARN: Some screens failed to load: %v", err)
	}
	st.Set(screens)
	if len(screens) == 0 {
		log.Printf("WARN: No screens loaded, showing the test picture")
		st.Apply(func(d *screen.Display) { d.PrintTestPicture(version) })
	}

	if cfg.WatchScreens {
		w, err := watcher.New(cfg, *configPath, st)
		if err != nil {
			log.Printf("WARN: Screen file watching disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	sched := scheduler.NewScheduler(cfg.RotationSchedule, st, source.CommandRefresher(cfg), cfg.RotationHistoryPath)
	go sched.Start(ctx)

	registry := session.NewRegistry(cfg.MaxSessions)
	registry.SetMaxPerHost(cfg.MaxSessionsPerHost)
	handler := &session.Handler{Station: st, Registry: registry, Options: render.DefaultOptions()}

	var closers []io.Closer
	if cfg.SSHEnabled {
		srv, err := sshserver.NewServer(sshserver.Config{
			HostKeyPath:         cfg.SSHHostKeyPath,
			Host:                cfg.SSHHost,
			Port:                cfg.SSHPort,
			LegacySSHAlgorithms: cfg.LegacySSHAlgorithms,
			Handler:             handler,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to create SSH server: %v", err)
		}
		closers = append(closers, srv)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
				log.Printf("ERROR: SSH server stopped: %v", err)
				stop()
			}
		}()
	}
	if cfg.TelnetEnabled {
		srv, err := telnetserver.NewServer(telnetserver.Config{
			Host:    cfg.TelnetHost,
			Port:    cfg.TelnetPort,
			Handler: handler,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to create telnet server: %v", err)
		}
		closers = append(closers, srv)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("ERROR: Telnet server stopped: %v", err)
				stop()
			}
		}()
	}
	if len(closers) == 0 {
		log.Printf("WARN: Neither SSH nor telnet is enabled; the screen rotates with no viewers")
	}

	<-ctx.Done()
	log.Printf("INFO: Shutting down (%d viewer(s) connected)", registry.Count())
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Printf("WARN: Close: %v", err)
		}
	}
	log.Println("INFO: PETSCII server stopped.")
}
