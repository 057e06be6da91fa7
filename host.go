package slideview

import (
	"context"
	"fmt"
	"image"
)

// View is the capability a host drives: it opens a file into a panel,
// closes it, and asks how to label the view.
type View interface {
	Open(ctx context.Context, path string) error
	Close() error
	DisplayLabel() string
	IconName() string
}

// Panel is the host area a Viewer draws into.
//
// Panel and Surface methods are called with the viewer's lock held and must
// not call back into the Viewer synchronously. Thumbnail select callbacks may
// be invoked from any goroutine once the call that created them has returned.
type Panel interface {
	// ShowLoading replaces the panel content with a progress message.
	ShowLoading(message string)
	// ShowError replaces the panel content with a failure message.
	ShowError(message string)
	// NewPageSurface creates the main page surface.
	NewPageSurface() Surface
	// NewThumbnail creates the thumbnail surface for page (0-based).
	// onSelect jumps the viewer to that page.
	NewThumbnail(page int, onSelect func()) Surface
	// UpdateControls refreshes navigation buttons and the page label.
	UpdateControls(nav NavState)
	// Clear empties the panel.
	Clear()
}

// Surface is one drawable area owned by the viewer.
type Surface interface {
	Draw(img image.Image) error
	SetHighlighted(on bool)
	ScrollIntoView()
	Release()
}

// NavState is what the host needs to draw navigation controls.
type NavState struct {
	Page        int // 0-based
	Total       int
	Zoom        float64
	Label       string // "current / total", 1-based
	CanPrevious bool
	CanNext     bool
	CanZoomIn   bool
	CanZoomOut  bool
}

// navLabel formats the 1-based page indicator.
func navLabel(page, total int) string {
	if total == 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", page+1, total)
}
