package slideview

import "errors"

// Sentinel errors for library operations.
var (
	// Conversion errors. ConversionResult.Error carries their messages.
	ErrToolUnavailable     = errors.New("presentation converter not available")
	ErrConversionFailed    = errors.New("conversion failed")
	ErrUnsupportedPlatform = errors.New("presentation conversion is not supported on this platform")

	// Viewer errors.
	ErrRenderFailed = errors.New("failed to render")
	ErrNotReady     = errors.New("viewer is not ready")
	ErrNoDocument   = errors.New("no document open")
	ErrSuperseded   = errors.New("open superseded by a newer request")
)

// OpenError reports why Viewer.Open left the session Failed.
// Message is the text shown to the user, verbatim.
type OpenError struct {
	Kind    ErrorKind // KindNone for render failures
	Message string
}

func (e *OpenError) Error() string {
	return e.Message
}

// Unwrap maps the failure to its sentinel so callers can use errors.Is.
func (e *OpenError) Unwrap() error {
	switch e.Kind {
	case KindToolUnavailable:
		return ErrToolUnavailable
	case KindUnsupportedPlatform:
		return ErrUnsupportedPlatform
	case KindConversionFailed:
		return ErrConversionFailed
	default:
		return ErrRenderFailed
	}
}
