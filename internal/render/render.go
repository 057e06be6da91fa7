// Package render rasterizes PDF pages with MuPDF (go-fitz) and scales previews.
package render

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"
)

// BaseDPI is the resolution at which one PDF point maps to one pixel.
const BaseDPI = 72.0

// Sentinel errors for rendering.
var (
	ErrClosed      = errors.New("document is closed")
	ErrPageRange   = errors.New("page out of range")
	ErrInvalidSize = errors.New("invalid render size")
)

// Document provides page-by-page raster access to a paginated document.
type Document interface {
	NumPages() int
	// Render rasterizes page (0-based) at scale, where 1.0 = BaseDPI.
	Render(page int, scale float64) (image.Image, error)
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// fitzDocument implements Document on a MuPDF handle.
// MuPDF contexts are not safe for concurrent use, so calls are serialized.
type fitzDocument struct {
	mu  sync.Mutex
	doc *fitz.Document
	n   int
}

var _ Document = (*fitzDocument)(nil)

// OpenPDF opens a PDF file for rendering.
func OpenPDF(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &fitzDocument{doc: doc, n: doc.NumPage()}, nil
}

func (d *fitzDocument) NumPages() int {
	return d.n
}

func (d *fitzDocument) Render(page int, scale float64) (image.Image, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("%w: scale %.2f", ErrInvalidSize, scale)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc == nil {
		return nil, ErrClosed
	}
	if page < 0 || page >= d.n {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageRange, page, d.n)
	}

	img, err := d.doc.ImageDPI(page, BaseDPI*scale)
	if err != nil {
		return nil, fmt.Errorf("rasterizing page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}

// ScaleToWidth resizes img to width pixels, preserving aspect ratio.
func ScaleToWidth(img image.Image, width int) (image.Image, error) {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d to width %d", ErrInvalidSize, b.Dx(), b.Dy(), width)
	}

	height := max(1, (b.Dy()*width+b.Dx()/2)/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, nil
}

// Thumbnail renders page at a scale close to width pixels and scales it to
// exactly width. The page is first rendered at scale 1 to learn its size.
func Thumbnail(doc Document, page, width int) (image.Image, error) {
	img, err := doc.Render(page, 1)
	if err != nil {
		return nil, err
	}
	return ScaleToWidth(img, width)
}
