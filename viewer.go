package slideview

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/alnah/go-slideview/internal/fileutil"
	"github.com/alnah/go-slideview/internal/render"
)

var _ View = (*Viewer)(nil)

// Host-facing identity.
const (
	defaultDisplayLabel = "Presentation"
	iconName            = "presentation"
)

// Viewer shows one presentation at a time as a paginated, zoomable view.
//
// States move Empty -> Loading -> Ready or Failed; Close returns to Empty.
// Every render checks the generation it started under before drawing, so a
// render that finishes after a newer Open or Close is discarded.
type Viewer struct {
	converter  Converter
	openPDF    render.Opener
	panel      Panel
	quality    float64
	zoomStep   float64
	thumbWidth int
	log        zerolog.Logger
	newID      func() string

	mu      sync.Mutex
	gen     uint64
	state   State
	source  string
	message string
	sess    *session
}

// session is the live document. Fields below renderMu are guarded by
// Viewer.mu; renderMu serializes every render against doc.
type session struct {
	id        string
	gen       uint64
	pdfPath   string
	fromCache bool
	doc       render.Document
	main      Surface
	thumbs    []Surface

	renderMu sync.Mutex

	page  int
	total int
	zoom  float64
}

// WithOpener replaces the PDF opener (tests use fakes).
func WithOpener(open render.Opener) ViewerOption {
	return func(v *Viewer) {
		if open != nil {
			v.openPDF = open
		}
	}
}

// WithQuality sets the render resolution multiplier. Non-positive values are ignored.
func WithQuality(q float64) ViewerOption {
	return func(v *Viewer) {
		if q > 0 {
			v.quality = q
		}
	}
}

// WithZoomStep sets the zoom increment. Non-positive values are ignored.
func WithZoomStep(step float64) ViewerOption {
	return func(v *Viewer) {
		if step > 0 {
			v.zoomStep = step
		}
	}
}

// WithThumbnailWidth sets the thumbnail width in pixels. Non-positive values are ignored.
func WithThumbnailWidth(w int) ViewerOption {
	return func(v *Viewer) {
		if w > 0 {
			v.thumbWidth = w
		}
	}
}

// WithViewerLogger sets the diagnostic logger.
func WithViewerLogger(l zerolog.Logger) ViewerOption {
	return func(v *Viewer) {
		v.log = l
	}
}

// withSessionIDs replaces UUID generation in tests.
func withSessionIDs(fn func() string) ViewerOption {
	return func(v *Viewer) {
		v.newID = fn
	}
}

// NewViewer creates an empty Viewer that converts through conv and draws into panel.
func NewViewer(conv Converter, panel Panel, opts ...ViewerOption) *Viewer {
	v := &Viewer{
		converter:  conv,
		openPDF:    render.OpenPDF,
		panel:      panel,
		quality:    DefaultQuality,
		zoomStep:   DefaultZoomStep,
		thumbWidth: DefaultThumbnailWidth,
		log:        zerolog.Nop(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With().Str("component", "viewer").Logger()
	return v
}

// DisplayLabel names the view after the open file.
func (v *Viewer) DisplayLabel() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.source == "" {
		return defaultDisplayLabel
	}
	return filepath.Base(v.source)
}

// IconName returns the host icon identifier.
func (v *Viewer) IconName() string {
	return iconName
}

// Open replaces the current session with path, converting it if needed.
// On success the first page and every thumbnail are drawn and the state is
// Ready. On failure the state is Failed and the returned *OpenError carries
// the message shown in the panel. ErrSuperseded means a newer Open or Close
// won the race; the viewer state then belongs to that call.
func (v *Viewer) Open(ctx context.Context, path string) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	old := v.sess
	v.sess = nil
	v.state = StateLoading
	v.source = path
	v.message = ""
	v.panel.ShowLoading("Converting " + filepath.Base(path) + "...")
	v.mu.Unlock()

	_ = v.teardown(old)

	res := v.converter.Convert(ctx, path)
	if !res.Success {
		return v.fail(gen, &OpenError{Kind: res.Kind, Message: res.Error})
	}

	doc, err := v.openPDF(res.Path)
	if err == nil && doc.NumPages() < 1 {
		_ = doc.Close()
		err = errors.New("document has no pages")
	}
	if err != nil {
		return v.fail(gen, renderError(err))
	}

	s := &session{
		id:        v.newID(),
		gen:       gen,
		pdfPath:   res.Path,
		fromCache: res.FromCache,
		doc:       doc,
		total:     doc.NumPages(),
		zoom:      DefaultZoom,
	}

	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		_ = doc.Close()
		return ErrSuperseded
	}
	s.main = v.panel.NewPageSurface()
	v.sess = s
	v.mu.Unlock()

	log := v.log.With().Str("session", s.id).Logger()
	log.Info().Str("source", path).Int("pages", s.total).Bool("from_cache", s.fromCache).Msg("document opened")

	if err := v.renderPage(s); err != nil {
		if errors.Is(err, ErrSuperseded) {
			return err
		}
		return v.fail(gen, renderError(err))
	}
	if err := v.buildThumbnails(s); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != gen {
		return ErrSuperseded
	}
	v.state = StateReady
	v.refreshLocked(s, -1)
	return nil
}

// Reload re-opens the current source, keeping page and zoom where they still fit.
func (v *Viewer) Reload(ctx context.Context) error {
	v.mu.Lock()
	source := v.source
	page, zoom := 0, DefaultZoom
	if v.sess != nil {
		page, zoom = v.sess.page, v.sess.zoom
	}
	v.mu.Unlock()

	if source == "" {
		return ErrNoDocument
	}
	if err := v.Open(ctx, source); err != nil {
		return err
	}

	v.mu.Lock()
	s := v.sess
	if s == nil || v.state != StateReady {
		v.mu.Unlock()
		return nil
	}
	prev := s.page
	s.page = min(page, s.total-1)
	s.zoom = zoom
	changed := s.page != prev || s.zoom != DefaultZoom
	v.refreshLocked(s, prev)
	v.mu.Unlock()

	if !changed {
		return nil
	}
	return v.renderOrSkip(s)
}

// Close tears the session down. Cached PDFs stay on disk.
func (v *Viewer) Close() error {
	v.mu.Lock()
	v.gen++
	old := v.sess
	v.sess = nil
	v.state = StateEmpty
	v.source = ""
	v.message = ""
	v.panel.Clear()
	v.mu.Unlock()

	return v.teardown(old)
}

// GoTo shows page i (0-based). Indexes outside the document are ignored.
func (v *Viewer) GoTo(i int) error {
	s, err := v.mutate(func(s *session) bool {
		if i < 0 || i >= s.total || i == s.page {
			return false
		}
		s.page = i
		return true
	})
	if err != nil || s == nil {
		return err
	}
	return v.renderOrSkip(s)
}

// Next shows the following page. No-op on the last page.
func (v *Viewer) Next() error {
	return v.step(1)
}

// Previous shows the preceding page. No-op on the first page.
func (v *Viewer) Previous() error {
	return v.step(-1)
}

func (v *Viewer) step(delta int) error {
	s, err := v.mutate(func(s *session) bool {
		next := s.page + delta
		if next < 0 || next >= s.total {
			return false
		}
		s.page = next
		return true
	})
	if err != nil || s == nil {
		return err
	}
	return v.renderOrSkip(s)
}

// ZoomIn enlarges the main page by one step, up to MaxZoom.
func (v *Viewer) ZoomIn() error {
	return v.zoomBy(v.zoomStep)
}

// ZoomOut shrinks the main page by one step, down to MinZoom.
func (v *Viewer) ZoomOut() error {
	return v.zoomBy(-v.zoomStep)
}

// SetZoom sets an absolute zoom, clamped to [MinZoom, MaxZoom].
func (v *Viewer) SetZoom(z float64) error {
	s, err := v.mutate(func(s *session) bool {
		z := clampZoom(z)
		if z == s.zoom {
			return false
		}
		s.zoom = z
		return true
	})
	if err != nil || s == nil {
		return err
	}
	return v.renderOrSkip(s)
}

// zoomBy changes zoom and re-renders the main page only. Thumbnails keep their size.
func (v *Viewer) zoomBy(delta float64) error {
	s, err := v.mutate(func(s *session) bool {
		z := clampZoom(s.zoom + delta)
		if z == s.zoom {
			return false
		}
		s.zoom = z
		return true
	})
	if err != nil || s == nil {
		return err
	}
	return v.renderOrSkip(s)
}

// Snapshot returns a copy of the current session state.
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	snap := Snapshot{
		State:   v.state,
		Source:  v.source,
		Message: v.message,
		Zoom:    DefaultZoom,
	}
	if s := v.sess; s != nil {
		snap.Session = s.id
		snap.PDFPath = s.pdfPath
		snap.FromCache = s.fromCache
		snap.Page = s.page
		snap.Total = s.total
		snap.Zoom = s.zoom
	}
	return snap
}

// mutate applies change to the live session when the viewer is Ready.
// It returns the session when change reported a modification, nil otherwise.
func (v *Viewer) mutate(change func(s *session) bool) (*session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateReady || v.sess == nil {
		return nil, ErrNotReady
	}
	s := v.sess
	prev := s.page
	if !change(s) {
		return nil, nil
	}
	v.refreshLocked(s, prev)
	return s, nil
}

// renderOrSkip renders the current page, treating a superseded session as done.
// A page that cannot be rendered moves the viewer to Failed.
func (v *Viewer) renderOrSkip(s *session) error {
	err := v.renderPage(s)
	if err == nil || errors.Is(err, ErrSuperseded) {
		return nil
	}
	if err := v.fail(s.gen, renderError(err)); !errors.Is(err, ErrSuperseded) {
		return err
	}
	return nil
}

// renderPage draws the session's current page at quality × zoom.
// Page and zoom are read once the render lock is held, so the last of
// several queued renders always shows the latest state.
func (v *Viewer) renderPage(s *session) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	v.mu.Lock()
	page, zoom := s.page, s.zoom
	live := v.gen == s.gen && v.sess == s
	v.mu.Unlock()
	if !live {
		return ErrSuperseded
	}

	img, err := s.doc.Render(page, v.quality*zoom)
	if err != nil {
		return fmt.Errorf("page %d: %w", page+1, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen != s.gen || v.sess != s {
		v.log.Debug().Str("session", s.id).Int("page", page).Msg("discarding stale render")
		return ErrSuperseded
	}
	return s.main.Draw(img)
}

// buildThumbnails renders every page at the thumbnail width, in order.
// A thumbnail that fails to render is logged and left blank.
func (v *Viewer) buildThumbnails(s *session) error {
	for i := 0; i < s.total; i++ {
		v.mu.Lock()
		if v.gen != s.gen {
			v.mu.Unlock()
			return ErrSuperseded
		}
		page := i
		gen := s.gen
		surf := v.panel.NewThumbnail(page, func() {
			if v.currentGen() != gen {
				return
			}
			if err := v.GoTo(page); errors.Is(err, ErrNotReady) {
				v.log.Debug().Err(err).Int("page", page).Msg("thumbnail select ignored")
			}
		})
		s.thumbs = append(s.thumbs, surf)
		v.mu.Unlock()

		s.renderMu.Lock()
		img, err := render.Thumbnail(s.doc, page, v.thumbWidth)
		s.renderMu.Unlock()
		if err != nil {
			v.log.Warn().Err(err).Str("session", s.id).Int("page", page).Msg("thumbnail failed")
			continue
		}

		v.mu.Lock()
		if v.gen != s.gen {
			v.mu.Unlock()
			return ErrSuperseded
		}
		if err := surf.Draw(img); err != nil {
			v.log.Warn().Err(err).Str("session", s.id).Int("page", page).Msg("thumbnail draw failed")
		}
		v.mu.Unlock()
	}
	return nil
}

// refreshLocked moves the thumbnail highlight from prev to the current page
// and pushes navigation state to the panel. Callers hold v.mu.
func (v *Viewer) refreshLocked(s *session, prev int) {
	if prev >= 0 && prev < len(s.thumbs) && prev != s.page {
		s.thumbs[prev].SetHighlighted(false)
	}
	if s.page < len(s.thumbs) {
		s.thumbs[s.page].SetHighlighted(true)
		s.thumbs[s.page].ScrollIntoView()
	}
	v.panel.UpdateControls(NavState{
		Page:        s.page,
		Total:       s.total,
		Zoom:        s.zoom,
		Label:       navLabel(s.page, s.total),
		CanPrevious: s.page > 0,
		CanNext:     s.page < s.total-1,
		CanZoomIn:   s.zoom < MaxZoom,
		CanZoomOut:  s.zoom > MinZoom,
	})
}

// fail moves the viewer to Failed if gen is still current. A session that
// already failed keeps its first message.
func (v *Viewer) fail(gen uint64, err *OpenError) error {
	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		return ErrSuperseded
	}
	if v.state == StateFailed {
		v.mu.Unlock()
		return err
	}
	old := v.sess
	v.sess = nil
	v.state = StateFailed
	v.message = err.Message
	v.panel.ShowError(err.Message)
	v.mu.Unlock()

	_ = v.teardown(old)
	v.log.Warn().Str("source", v.sourceName()).Str("kind", err.Kind.String()).Msg(err.Message)
	return err
}

// teardown releases surfaces and closes the document. It waits for any
// render in progress on s.
func (v *Viewer) teardown(s *session) error {
	if s == nil {
		return nil
	}
	s.renderMu.Lock()
	defer s.renderMu.Unlock()

	if s.main != nil {
		s.main.Release()
	}
	for _, t := range s.thumbs {
		t.Release()
	}
	s.thumbs = nil
	v.log.Debug().Str("session", s.id).Msg("session closed")
	return s.doc.Close()
}

func (v *Viewer) currentGen() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.gen
}

func (v *Viewer) sourceName() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return fileutil.BaseName(v.source)
}

// renderError wraps a document failure in the viewer's render message.
func renderError(err error) *OpenError {
	return &OpenError{Message: fmt.Sprintf("%v: %v", ErrRenderFailed, err)}
}

// clampZoom bounds z to [MinZoom, MaxZoom] and drops float noise.
func clampZoom(z float64) float64 {
	z = math.Round(z*1e6) / 1e6
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}
