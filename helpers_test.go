package slideview

import (
	"context"
	"crypto/md5" // #nosec G501 -- matches the cache fingerprint
	"encoding/hex"
	"errors"
	"image"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/alnah/go-slideview/internal/office"
	"github.com/alnah/go-slideview/internal/render"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - fake converter tool
// ---------------------------------------------------------------------------

// fakeTool answers the version probe for the listed names and writes a PDF
// into --outdir for conversions, unless the strategy is listed in fail.
type fakeTool struct {
	mu        sync.Mutex
	available []string
	fail      map[string]bool // strategy flag ("--print-to-file", "--convert-to") -> fail
	panicOn   string
	probes    int
	convs     int
	lastArgs  []string
}

var _ office.Runner = (*fakeTool)(nil)

func (f *fakeTool) Run(_ context.Context, name string, args []string, _ office.RunOptions) (office.Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(args) == 1 && args[0] == "--version" {
		f.probes++
		if slices.Contains(f.available, name) {
			return office.Output{Stdout: "LibreOffice 24.2.7.2\n"}, nil
		}
		return office.Output{ExitCode: -1}, errors.New("executable file not found in $PATH")
	}

	f.convs++
	f.lastArgs = slices.Clone(args)
	for _, a := range args {
		if a == f.panicOn {
			panic("tool exploded")
		}
		if f.fail[a] {
			return office.Output{Stderr: "Error: source file could not be loaded", ExitCode: 1}, errors.New("exit status 1")
		}
	}

	outDir := args[slices.Index(args, "--outdir")+1]
	src := args[len(args)-1]
	base := filepath.Base(src)
	base = base[:len(base)-len(filepath.Ext(base))]
	if err := os.WriteFile(filepath.Join(outDir, base+".pdf"), []byte("%PDF-1.7 fake"), 0o600); err != nil {
		return office.Output{}, err
	}
	return office.Output{}, nil
}

func (f *fakeTool) conversions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.convs
}

func (f *fakeTool) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

// fivePages is a PageCounter that accepts any output.
func fivePages(string) (int, error) { return 5, nil }

// newTestPipeline builds a pipeline over a temp cache with tool as runner.
func newTestPipeline(t *testing.T, tool *fakeTool, opts ...Option) *Pipeline {
	t.Helper()
	base := []Option{
		WithCacheDir(filepath.Join(t.TempDir(), "cache")),
		WithRunner(tool),
		WithCandidates([]string{"soffice"}),
		WithPageCounter(fivePages),
		WithPlatform("linux"),
	}
	return NewPipeline(append(base, opts...)...)
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

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) // #nosec G401 -- test mirrors the cache fingerprint
	return hex.EncodeToString(sum[:])
}

// ---------------------------------------------------------------------------
// Test Infrastructure - fake document, panel and surfaces
// ---------------------------------------------------------------------------

type renderCall struct {
	page  int
	scale float64
}

type fakeDocument struct {
	mu        sync.Mutex
	pages     int
	renderErr error
	calls     []renderCall
	closed    bool
}

var _ render.Document = (*fakeDocument)(nil)

func (d *fakeDocument) NumPages() int { return d.pages }

func (d *fakeDocument) Render(page int, scale float64) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, renderCall{page: page, scale: scale})
	if d.renderErr != nil {
		return nil, d.renderErr
	}
	return image.NewRGBA(image.Rect(0, 0, int(100*scale), int(75*scale))), nil
}

func (d *fakeDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// mainRenders returns render calls made at a scale other than 1 (thumbnails use 1).
func (d *fakeDocument) mainRenders() []renderCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []renderCall
	for _, c := range d.calls {
		if c.scale != 1 {
			out = append(out, c)
		}
	}
	return out
}

func (d *fakeDocument) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type fakeSurface struct {
	page        int // -1 for the main surface
	draws       []image.Image
	highlighted bool
	scrolled    int
	released    bool
	onSelect    func()
}

var _ Surface = (*fakeSurface)(nil)

func (s *fakeSurface) Draw(img image.Image) error {
	s.draws = append(s.draws, img)
	return nil
}

func (s *fakeSurface) SetHighlighted(on bool) { s.highlighted = on }
func (s *fakeSurface) ScrollIntoView()        { s.scrolled++ }
func (s *fakeSurface) Release()               { s.released = true }

type fakePanel struct {
	loading  []string
	errors   []string
	main     []*fakeSurface
	thumbs   []*fakeSurface
	controls []NavState
	cleared  int
}

var _ Panel = (*fakePanel)(nil)

func (p *fakePanel) ShowLoading(msg string) { p.loading = append(p.loading, msg) }
func (p *fakePanel) ShowError(msg string)   { p.errors = append(p.errors, msg) }
func (p *fakePanel) UpdateControls(n NavState) {
	p.controls = append(p.controls, n)
}
func (p *fakePanel) Clear() { p.cleared++ }

func (p *fakePanel) NewPageSurface() Surface {
	s := &fakeSurface{page: -1}
	p.main = append(p.main, s)
	return s
}

func (p *fakePanel) NewThumbnail(page int, onSelect func()) Surface {
	s := &fakeSurface{page: page, onSelect: onSelect}
	p.thumbs = append(p.thumbs, s)
	return s
}

func (p *fakePanel) lastControls() NavState {
	if len(p.controls) == 0 {
		return NavState{}
	}
	return p.controls[len(p.controls)-1]
}

// currentMain returns the most recent main surface.
func (p *fakePanel) currentMain() *fakeSurface {
	if len(p.main) == 0 {
		return nil
	}
	return p.main[len(p.main)-1]
}

// fakeConverter returns a fixed result and can run a hook mid-conversion.
type fakeConverter struct {
	mu     sync.Mutex
	result ConversionResult
	calls  []string
	hook   func(path string)
}

var _ Converter = (*fakeConverter)(nil)

func (c *fakeConverter) Convert(_ context.Context, path string) ConversionResult {
	c.mu.Lock()
	c.calls = append(c.calls, path)
	hook := c.hook
	c.mu.Unlock()
	if hook != nil {
		hook(path)
	}
	return c.result
}

// openerFor returns an Opener that always yields doc.
func openerFor(doc *fakeDocument) render.Opener {
	return func(string) (render.Document, error) { return doc, nil }
}

// readyViewer opens a fake document with pages pages and fails the test
// unless the viewer ends Ready.
func readyViewer(t *testing.T, pages int, opts ...ViewerOption) (*Viewer, *fakePanel, *fakeDocument) {
	t.Helper()
	doc := &fakeDocument{pages: pages}
	panel := &fakePanel{}
	conv := &fakeConverter{result: ConversionResult{Success: true, Path: "/cache/deck_abc.pdf", FromCache: true}}
	v := NewViewer(conv, panel, append([]ViewerOption{WithOpener(openerFor(doc))}, opts...)...)
	if err := v.Open(context.Background(), "/decks/deck.pptx"); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if st := v.Snapshot().State; st != StateReady {
		t.Fatalf("state = %s, want ready", st)
	}
	return v, panel, doc
}
