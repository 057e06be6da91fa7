package main

import (
	"io"
	"os"
	"runtime"
	"time"

	slideview "github.com/alnah/go-slideview"
	"github.com/alnah/go-slideview/internal/office"
	"github.com/alnah/go-slideview/internal/render"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, environment lookup, the target platform, and the
// converter and PDF backends (nil selects the production ones).
type Environment struct {
	Now    func() time.Time
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	GOOS   string

	Runner      office.Runner
	PageCounter slideview.PageCounter
	OpenPDF     render.Opener
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
		GOOS:   runtime.GOOS,
	}
}
