package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	slideview "github.com/alnah/go-slideview"
)

// ErrWriteImage wraps failures to write a rendered page to disk.
var ErrWriteImage = errors.New("failed to write image")

// Output file names inside the panel directory.
const (
	pageFileName      = "page.png"
	thumbnailTemplate = "thumb-%03d.png" // 1-based page number
	thumbnailPattern  = "thumb-*.png"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

var (
	_ slideview.Panel   = (*dirPanel)(nil)
	_ slideview.Surface = (*pngSurface)(nil)
)

// dirPanel is a Panel that writes every surface as a PNG file in one directory.
// The main page is page.png; thumbnails are thumb-001.png, thumb-002.png, ...
type dirPanel struct {
	dir string

	mu       sync.Mutex
	status   string // last loading or error message
	failed   bool
	nav      slideview.NavState
	selected int
	onSelect map[int]func()
}

func newDirPanel(dir string) *dirPanel {
	return &dirPanel{dir: dir, onSelect: map[int]func(){}}
}

func (p *dirPanel) ShowLoading(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status, p.failed = message, false
}

func (p *dirPanel) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status, p.failed = message, true
}

// NewPageSurface starts a new document. Thumbnails of the previous one are
// forgotten and their files removed, so a shorter deck leaves no extras.
func (p *dirPanel) NewPageSurface() slideview.Surface {
	p.mu.Lock()
	p.onSelect = map[int]func(){}
	p.selected = 0
	p.mu.Unlock()
	p.removeThumbnails()
	return &pngSurface{path: filepath.Join(p.dir, pageFileName)}
}

func (p *dirPanel) removeThumbnails() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if ok, _ := filepath.Match(thumbnailPattern, e.Name()); ok && !e.IsDir() {
			_ = os.Remove(filepath.Join(p.dir, e.Name()))
		}
	}
}

func (p *dirPanel) NewThumbnail(page int, onSelect func()) slideview.Surface {
	p.mu.Lock()
	p.onSelect[page] = onSelect
	p.mu.Unlock()
	return &pngSurface{
		path:  filepath.Join(p.dir, fmt.Sprintf(thumbnailTemplate, page+1)),
		panel: p,
		page:  page,
	}
}

func (p *dirPanel) UpdateControls(nav slideview.NavState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nav = nav
}

func (p *dirPanel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status, p.failed = "", false
	p.nav = slideview.NavState{}
	p.selected = 0
	p.onSelect = map[int]func(){}
}

// selectThumbnail clicks thumbnail n (1-based). It reports false for unknown pages.
func (p *dirPanel) selectThumbnail(n int) bool {
	p.mu.Lock()
	fn, ok := p.onSelect[n-1]
	p.mu.Unlock()
	if !ok {
		return false
	}
	fn()
	return true
}

// describe summarizes what a graphical panel would show right now.
func (p *dirPanel) describe() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.failed:
		return "error: " + p.status
	case p.nav.Total == 0 && p.status != "":
		return p.status
	case p.nav.Total == 0:
		return "empty"
	}
	return fmt.Sprintf("thumbnail %d selected; previous:%s next:%s zoom-in:%s zoom-out:%s",
		p.selected+1, onOff(p.nav.CanPrevious), onOff(p.nav.CanNext),
		onOff(p.nav.CanZoomIn), onOff(p.nav.CanZoomOut))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (p *dirPanel) setHighlighted(page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = page
}

// pngSurface writes each drawn image to path, replacing the previous one atomically.
type pngSurface struct {
	path  string
	panel *dirPanel // nil for the main page
	page  int
}

func (s *pngSurface) Draw(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".draw-*.png")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteImage, err)
	}
	tmpName := tmp.Name()

	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: encoding %s: %v", ErrWriteImage, filepath.Base(s.path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteImage, err)
	}
	if err := os.Chmod(tmpName, filePermissions); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteImage, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteImage, err)
	}
	return nil
}

func (s *pngSurface) SetHighlighted(on bool) {
	if on && s.panel != nil {
		s.panel.setHighlighted(s.page)
	}
}

// ScrollIntoView has nothing to scroll in a directory.
func (s *pngSurface) ScrollIntoView() {}

// Release keeps the file: rendered pages are the command's output.
func (s *pngSurface) Release() {}
