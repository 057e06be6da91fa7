package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	slideview "github.com/alnah/go-slideview"
	"github.com/alnah/go-slideview/internal/fileutil"
)

// runOpenCmd converts one presentation and renders the requested page.
func runOpenCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseOpenFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	path, err := singleInput("open", positional)
	if err != nil {
		return err
	}
	if flags.page < 1 {
		return fmt.Errorf("%w: --page %d (pages start at 1)", ErrInvalidPage, flags.page)
	}
	if flags.zoom < slideview.MinZoom || flags.zoom > slideview.MaxZoom {
		return fmt.Errorf("%w: --zoom %.2f (allowed %.1f-%.1f)",
			ErrInvalidZoom, flags.zoom, slideview.MinZoom, slideview.MaxZoom)
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

	v := slideview.NewViewer(p, panel, s.viewerOptions(env)...)
	defer func() { _ = v.Close() }()

	if err := v.Open(ctx, path); err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}

	if total := v.Snapshot().Total; flags.page > total {
		return fmt.Errorf("%w: --page %d (document has %d)", ErrInvalidPage, flags.page, total)
	}
	if err := v.GoTo(flags.page - 1); err != nil {
		return err
	}
	if err := v.SetZoom(flags.zoom); err != nil {
		return err
	}

	out := newPrinter(env, flags.common.quiet)
	out.snapshot(filepath.Base(path), v.Snapshot())
	out.infof("Created %s", filepath.Join(flags.output, pageFileName))
	return nil
}

// singleInput returns the one presentation path a command expects.
func singleInput(cmd string, positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return "", fmt.Errorf("%w: %s needs a presentation path", ErrNoInput, cmd)
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("%w: %s takes one presentation, got %d", ErrUsage, cmd, len(positional))
	}
}

// prepareOutput creates dir if needed and returns a panel writing into it.
func prepareOutput(dir string) (*dirPanel, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputDir, err)
	}
	if !fileutil.DirWritable(dir) {
		return nil, fmt.Errorf("%w: %s", ErrOutputDir, dir)
	}
	return newDirPanel(dir), nil
}
