package slideview

import "time"

// Viewer defaults.
const (
	DefaultZoom           = 1.0
	MinZoom               = 0.5
	MaxZoom               = 3.0
	DefaultZoomStep       = 0.25
	DefaultQuality        = 2.0
	DefaultThumbnailWidth = 120
)

// Pipeline defaults.
const (
	DefaultTimeout    = 90 * time.Second
	DefaultMaxAgeDays = 7
)

// ErrorKind classifies a failed conversion.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindToolUnavailable
	KindConversionFailed
	KindUnsupportedPlatform
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindToolUnavailable:
		return "tool-unavailable"
	case KindConversionFailed:
		return "conversion-failed"
	case KindUnsupportedPlatform:
		return "unsupported-platform"
	default:
		return "none"
	}
}

// ConversionResult is the outcome of Pipeline.Convert.
// Success implies a usable Path; failure implies an empty Path and a message.
type ConversionResult struct {
	Success     bool
	Path        string    // cached PDF, only on success
	Error       string    // human-readable message, only on failure
	FromCache   bool      // true when no conversion ran
	Fingerprint string    // content hash of the source, when it could be read
	Strategy    string    // strategy that produced a fresh entry
	Kind        ErrorKind // KindNone on success
}

// CacheStats summarizes the cache directory.
type CacheStats struct {
	Count     int
	TotalSize int64
}

// State is the viewer lifecycle state.
type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Snapshot is an immutable copy of a viewer session.
type Snapshot struct {
	State     State
	Session   string // UUID of the live session, empty when Empty
	Source    string
	PDFPath   string
	Page      int // 0-based
	Total     int
	Zoom      float64
	Message   string // failure message in StateFailed
	FromCache bool
}

// Label returns the "current / total" text shown next to the controls.
func (s Snapshot) Label() string {
	return navLabel(s.Page, s.Total)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// ViewerOption configures a Viewer.
type ViewerOption func(*Viewer)
