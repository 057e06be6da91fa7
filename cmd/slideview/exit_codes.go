package main

import (
	"errors"
	"os"

	slideview "github.com/alnah/go-slideview"
	"github.com/alnah/go-slideview/internal/config"
	"github.com/alnah/go-slideview/internal/fileutil"
)

// Exit codes for slideview CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Command completed
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or arguments
	ExitIO        = 3 // File not found, permission denied, output not writable
	ExitConverter = 4 // Converter missing or conversion/render failure
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Converter errors (exit 4)
	if errors.Is(err, slideview.ErrToolUnavailable) ||
		errors.Is(err, slideview.ErrConversionFailed) ||
		errors.Is(err, slideview.ErrUnsupportedPlatform) ||
		errors.Is(err, slideview.ErrRenderFailed) {
		return ExitConverter
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrOutOfRange) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInputTooLarge) ||
		errors.Is(err, fileutil.ErrNotPresentation) ||
		errors.Is(err, fileutil.ErrIsDirectory) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidZoom) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrWriteImage) ||
		errors.Is(err, ErrOutputDir) {
		return ExitIO
	}

	return ExitGeneral
}
