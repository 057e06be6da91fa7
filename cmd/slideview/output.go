package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	slideview "github.com/alnah/go-slideview"
)

// printer writes user-facing status lines. It is safe for concurrent use.
// Color is only used when stdout is a terminal.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	quiet  bool

	good *color.Color
	warn *color.Color
	bad  *color.Color
}

func newPrinter(env *Environment, quiet bool) *printer {
	p := &printer{
		out:    env.Stdout,
		errOut: env.Stderr,
		quiet:  quiet,
		good:   color.New(color.FgGreen),
		warn:   color.New(color.FgYellow),
		bad:    color.New(color.FgRed),
	}
	if f, ok := env.Stdout.(*os.File); !ok || f != os.Stdout || color.NoColor {
		p.good.DisableColor()
		p.warn.DisableColor()
		p.bad.DisableColor()
	}
	return p
}

// infof prints a plain line unless quiet.
func (p *printer) infof(format string, args ...any) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format+"\n", args...)
}

// snapshot prints the viewer state as one line, e.g. "deck.pptx: 3 / 12 (zoom 1.50, cached)".
func (p *printer) snapshot(name string, s slideview.Snapshot) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch s.State {
	case slideview.StateReady:
		origin := "converted"
		if s.FromCache {
			origin = "cached"
		}
		_, _ = p.good.Fprintf(p.out, "%s: %s", name, s.Label())
		fmt.Fprintf(p.out, " (zoom %.2f, %s)\n", s.Zoom, origin)
	case slideview.StateLoading:
		_, _ = p.warn.Fprintf(p.out, "%s: loading\n", name)
	case slideview.StateFailed:
		_, _ = p.bad.Fprintf(p.out, "%s: failed\n", name)
	default:
		fmt.Fprintf(p.out, "%s: no document\n", name)
	}
}

// errorf prints to stderr regardless of quiet.
func (p *printer) errorf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = p.bad.Fprintf(p.errOut, format+"\n", args...)
}
