package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-slideview/internal/office"
	"github.com/alnah/go-slideview/internal/render"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - fake office suite and PDF backend
// ---------------------------------------------------------------------------

// fakeOffice answers "soffice --version" when installed and writes a PDF
// into --outdir for every conversion. It never starts a real process.
type fakeOffice struct {
	mu        sync.Mutex
	installed bool
	convs     int
}

var _ office.Runner = (*fakeOffice)(nil)

func (f *fakeOffice) Run(_ context.Context, name string, args []string, _ office.RunOptions) (office.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(args) == 1 && args[0] == "--version" {
		if f.installed && name == "soffice" {
			return office.Output{Stdout: "LibreOffice 24.2.7.2 420(Build:2)\n"}, nil
		}
		return office.Output{ExitCode: -1}, errors.New("executable file not found in $PATH")
	}

	f.convs++
	outDir := args[slices.Index(args, "--outdir")+1]
	src := args[len(args)-1]
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if err := os.WriteFile(filepath.Join(outDir, base+".pdf"), []byte("%PDF-1.7 fake"), 0o600); err != nil {
		return office.Output{}, err
	}
	return office.Output{}, nil
}

func (f *fakeOffice) conversions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.convs
}

// fakePDF is a render.Document with solid gray pages. A non-zero failPage
// (1-based) fails main-page renders of that page; thumbnails still render.
type fakePDF struct {
	pages    int
	failPage int
}

func (d *fakePDF) NumPages() int { return d.pages }

func (d *fakePDF) Render(page int, scale float64) (image.Image, error) {
	if page == d.failPage-1 && scale != 1 {
		return nil, errors.New("rasterize boom")
	}
	img := image.NewRGBA(image.Rect(0, 0, int(160*scale), int(90*scale)))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.White)
	return img, nil
}

func (d *fakePDF) Close() error { return nil }

// testEnv bundles an Environment with its captured output.
type testEnv struct {
	*Environment
	office *fakeOffice
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	cache  string
}

// newTestEnv returns an environment whose converter is a fake with pages
// pages per document. installed controls whether soffice is found.
func newTestEnv(t *testing.T, installed bool, pages int) *testEnv {
	t.Helper()
	fake := &fakeOffice{installed: installed}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testEnv{
		Environment: &Environment{
			Now:         time.Now,
			Stdin:       strings.NewReader(""),
			Stdout:      stdout,
			Stderr:      stderr,
			Getenv:      func(string) string { return "" },
			GOOS:        "linux",
			Runner:      fake,
			PageCounter: func(string) (int, error) { return pages, nil },
			OpenPDF: func(string) (render.Document, error) {
				return &fakePDF{pages: pages}, nil
			},
		},
		office: fake,
		stdout: stdout,
		stderr: stderr,
		cache:  filepath.Join(t.TempDir(), "cache"),
	}
}

// run calls runMain with the test cache directory appended.
func (e *testEnv) run(args ...string) int {
	full := append([]string{"slideview"}, args...)
	if len(args) > 0 && isCacheAware(args[0]) {
		full = append(full, "--cache-dir", e.cache)
	}
	return runMain(full, e.Environment)
}

// isCacheAware reports whether cmd accepts the common flags.
func isCacheAware(cmd string) bool {
	switch cmd {
	case "open", "view", "cache", "doctor":
		return true
	}
	return false
}

// writeDeck writes a fake presentation and returns its path.
func writeDeck(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// cacheFiles lists the PDFs in dir.
func cacheFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	return matches
}

// syncBuffer is a bytes.Buffer safe to read while a command writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
