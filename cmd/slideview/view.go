package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	slideview "github.com/alnah/go-slideview"
	"github.com/alnah/go-slideview/internal/fileutil"
)

// errQuit ends the view loop.
var errQuit = errors.New("quit")

// runViewCmd opens a presentation and drives the viewer from stdin commands.
// A failed open keeps the loop running so "reload" can recover once the
// cause is fixed.
func runViewCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseViewFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	path, err := singleInput("view", positional)
	if err != nil {
		return err
	}
	if err := fileutil.ValidatePresentation(path); err != nil {
		return err
	}

	s, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	panel, err := prepareOutput(flags.output)
	if err != nil {
		return err
	}

	p := s.pipeline(env)
	s.sweep(p)

	vs := &viewSession{
		viewer: slideview.NewViewer(p, panel, s.viewerOptions(env)...),
		panel:  panel,
		out:    newPrinter(env, flags.common.quiet),
		name:   filepath.Base(path),
	}
	defer func() { _ = vs.viewer.Close() }()

	vs.report(vs.viewer.Open(ctx, path))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var changes <-chan struct{}
	if flags.watch {
		changes, err = watchSource(ctx, path, watchDebounce, s.log)
		if err != nil {
			return err
		}
	}

	lines := readLines(ctx, env.Stdin)
	for {
		select {
		case <-ctx.Done():
			return vs.result()
		case <-changes:
			vs.report(vs.viewer.Reload(ctx))
		case line, ok := <-lines:
			if !ok {
				return vs.result()
			}
			err := vs.exec(ctx, line)
			if errors.Is(err, errQuit) {
				return vs.result()
			}
			vs.report(err)
		}
	}
}

// viewSession binds a viewer to its panel and status output.
type viewSession struct {
	viewer  *slideview.Viewer
	panel   *dirPanel
	out     *printer
	name    string
	lastErr error // most recent open, reload or render failure
}

// exec runs one stdin command.
func (vs *viewSession) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch cmd := fields[0]; cmd {
	case "quit", "q", "exit":
		return errQuit
	case "status":
		vs.out.infof("%s", vs.panel.describe())
		return nil
	case "reload":
		return vs.viewer.Reload(ctx)
	case "goto":
		n, err := pageArg(fields)
		if err != nil {
			return err
		}
		total := vs.viewer.Snapshot().Total
		if n > total {
			return fmt.Errorf("%w: %d (document has %d)", ErrInvalidPage, n, total)
		}
		return vs.viewer.GoTo(n - 1)
	case "thumb":
		n, err := pageArg(fields)
		if err != nil {
			return err
		}
		if !vs.panel.selectThumbnail(n) {
			return fmt.Errorf("%w: no thumbnail %d", ErrInvalidPage, n)
		}
		return vs.failure()
	default:
		handled, err := vs.viewer.HandleKey(cmd)
		if !handled {
			return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		}
		return err
	}
}

// failure returns the viewer's failure as an error after a thumbnail click,
// whose result only shows in the viewer state.
func (vs *viewSession) failure() error {
	snap := vs.viewer.Snapshot()
	if snap.State != slideview.StateFailed {
		return nil
	}
	return &slideview.OpenError{Message: snap.Message}
}

// report prints err, or the current state when err is nil.
func (vs *viewSession) report(err error) {
	switch {
	case err == nil:
		vs.out.snapshot(vs.name, vs.viewer.Snapshot())
	case errors.Is(err, slideview.ErrSuperseded):
	case errors.Is(err, slideview.ErrNotReady):
		vs.out.errorf("error: no document ready")
	default:
		var openErr *slideview.OpenError
		if errors.As(err, &openErr) {
			vs.lastErr = err
		}
		vs.out.errorf("error: %v", err)
	}
}

// result is the command's error on exit: the last failure if the viewer
// never recovered from it.
func (vs *viewSession) result() error {
	if vs.viewer.Snapshot().State == slideview.StateFailed && vs.lastErr != nil {
		return fmt.Errorf("viewing %s: %w", vs.name, vs.lastErr)
	}
	return nil
}

// pageArg parses the 1-based page number of "goto N" or "thumb N".
func pageArg(fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("%w: %s needs a page number", ErrUsage, fields[0])
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPage, fields[1])
	}
	return n, nil
}

// readLines streams r line by line. The channel closes at EOF.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
