// Package source loads the text of configured screens from files or from the
// output of commands run under a pseudo terminal.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/creack/pty"

	"github.com/stlalpha/petscii/internal/charset"
	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/logging"
)

// maxOutput caps how much command output is kept. A command that writes more
// is killed and its output truncated.
const maxOutput = 64 << 10

// Screen is a loaded screen ready to be interpreted.
type Screen struct {
	Config   config.ScreenConfig
	Text     string
	LoadedAt time.Time
}

// Load reads the text for sc. Command screens run with a pty sized to the
// configured display and are killed after their timeout.
func Load(ctx context.Context, cfg config.ServerConfig, sc config.ScreenConfig) (Screen, error) {
	var (
		text string
		err  error
	)
	switch {
	case sc.File != "":
		text, err = readFile(cfg.ScreenFile(sc))
	case sc.Command != "":
		timeout := sc.TimeoutSeconds
		if timeout <= 0 {
			timeout = cfg.CommandTimeoutSeconds
		}
		if timeout <= 0 {
			timeout = config.DefaultCommandTimeoutSeconds
		}
		text, err = runCommand(ctx, sc, cfg.ScreenWidth, cfg.ScreenHeight, time.Duration(timeout)*time.Second)
	default:
		err = fmt.Errorf("screen %q has no file or command", sc.Name)
	}
	if err != nil {
		return Screen{}, err
	}

	if sc.Fold {
		folded, ferr := charset.Fold(text)
		if ferr != nil {
			return Screen{}, fmt.Errorf("failed to fold screen %q: %w", sc.Name, ferr)
		}
		text = folded
	}
	logging.Debug("Loaded screen %q (%d runes)", sc.Name, len([]rune(text)))
	return Screen{Config: sc, Text: text, LoadedAt: time.Now()}, nil
}

// LoadAll loads every configured screen. Screens that fail are logged and
// left out; their errors are joined into the returned error.
func LoadAll(ctx context.Context, cfg config.ServerConfig) ([]Screen, error) {
	screens := make([]Screen, 0, len(cfg.Screens))
	var errs []error
	for _, sc := range cfg.Screens {
		s, err := Load(ctx, cfg, sc)
		if err != nil {
			log.Printf("WARN: Skipping screen %q: %v", sc.Name, err)
			errs = append(errs, err)
			continue
		}
		screens = append(screens, s)
	}
	return screens, errors.Join(errs...)
}

// CommandRefresher returns a function that re-runs the command of the named
// screen. File screens are kept current by the file watcher, so ok is false
// for them and for names not in cfg.
func CommandRefresher(cfg config.ServerConfig) func(ctx context.Context, name string) (Screen, bool, error) {
	return func(ctx context.Context, name string) (Screen, bool, error) {
		sc, found := cfg.Screen(name)
		if !found || sc.Command == "" {
			return Screen{}, false, nil
		}
		s, err := Load(ctx, cfg, sc)
		if err != nil {
			return Screen{}, false, err
		}
		return s, true, nil
	}
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read screen file %s: %w", path, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.TrimSuffix(text, "\n"), nil
}

func runCommand(ctx context.Context, sc config.ScreenConfig, width, height int, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, sc.Command, sc.Args...)
	cmd.Env = append(os.Environ(),
		"TERM=dumb",
		fmt.Sprintf("LINES=%d", height),
		fmt.Sprintf("COLUMNS=%d", width),
	)

	logging.Debug("Starting screen command %q with PTY size %dx%d", sc.Command, width, height)
	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return "", fmt.Errorf("failed to start pty for screen command %q: %w", sc.Command, err)
	}
	defer func() { _ = ptmx.Close() }()

	var out bytes.Buffer
	n, copyErr := io.Copy(&out, io.LimitReader(ptmx, maxOutput+1))
	// Reading the master side fails with EIO once the child has exited.
	if copyErr != nil && !errors.Is(copyErr, syscall.EIO) && !errors.Is(copyErr, os.ErrClosed) {
		log.Printf("WARN: Error reading output of screen command %q: %v", sc.Command, copyErr)
	}

	// Nobody reads the pty past the cap, so the child would block on it
	// until the deadline.
	truncated := n > maxOutput
	if truncated {
		log.Printf("WARN: Screen command %q wrote more than %d bytes; output truncated", sc.Command, maxOutput)
		_ = cmd.Process.Kill()
		out.Truncate(maxOutput)
	}

	waitErr := cmd.Wait()
	if !truncated {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("screen command %q did not finish: %w", sc.Command, ctxErr)
		}
		if waitErr != nil {
			return "", fmt.Errorf("screen command %q failed: %w", sc.Command, waitErr)
		}
	}

	text := ansi.Strip(strings.ToValidUTF8(out.String(), ""))
	text = strings.ReplaceAll(text, "\r", "")
	return strings.TrimSuffix(text, "\n"), nil
}
