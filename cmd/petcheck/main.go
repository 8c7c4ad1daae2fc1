// Command petcheck checks formatted screen files for token errors and can
// print how they render.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/stlalpha/petscii/internal/config"
	"github.com/stlalpha/petscii/internal/palette"
	"github.com/stlalpha/petscii/internal/render"
	"github.com/stlalpha/petscii/internal/screen"
	"github.com/stlalpha/petscii/internal/source"
)

func main() {
	width := flag.Int("width", 40, "Screen width in cells")
	height := flag.Int("height", 25, "Screen height in cells")
	color := flag.Int("color", palette.LightBlue, "Starting text color")
	fold := flag.Bool("fold", false, "Map unsupported characters into the charset first")
	show := flag.Bool("render", false, "Print each screen after checking it")
	ascii := flag.Bool("ascii", false, "Render graphics characters as ASCII")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] file...\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	cfg.ScreenWidth, cfg.ScreenHeight = *width, *height
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	colorOut := term.IsTerminal(int(os.Stdout.Fd()))

	failed := 0
	for _, path := range flag.Args() {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		sc := config.ScreenConfig{Name: path, File: abs, Fold: *fold, Color: *color, Formatted: true}
		s, err := source.Load(context.Background(), cfg, sc)
		if err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed++
			continue
		}

		if err := screen.CheckFormattedText(s.Text, cfg.ScreenWidth, cfg.ScreenHeight); err != nil {
			fmt.Printf("%s: %v\n", path, err)
			failed++
		} else {
			fmt.Printf("%s: OK\n", path)
		}

		if *show {
			d, err := screen.NewDisplay(cfg.ScreenWidth, cfg.ScreenHeight)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(2)
			}
			d.SetBorderColor(cfg.BorderColor)
			d.SetBackgroundColor(cfg.BackgroundColor)
			d.Reset()
			d.PrintFormattedText(s.Text, 0, *color)
			if colorOut {
				opts := render.DefaultOptions()
				opts.Renderer = lipgloss.DefaultRenderer()
				opts.ASCII = *ascii
				fmt.Println(render.Frame(d, opts))
			} else {
				fmt.Println(render.Plain(d, *ascii))
			}
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
