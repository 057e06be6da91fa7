// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel errors for file utility operations.
var (
	ErrNotPresentation = errors.New("file must have .pptx or .ppt extension")
	ErrIsDirectory     = errors.New("path is a directory")
)

// PresentationExtensions lists the extensions the viewer is registered for.
var PresentationExtensions = []string{"pptx", "ppt"}

// BaseName returns the file name without directory and without its last extension.
//
// Examples:
//   - "/vault/deck.pptx" -> "deck"
//   - "notes/q3.review.ppt" -> "q3.review"
//   - "README" -> "README"
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// IsPresentation reports whether path carries a presentation extension (case-insensitive).
func IsPresentation(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, known := range PresentationExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

// ValidatePresentation checks that path names an existing presentation file.
func ValidatePresentation(path string) error {
	if !IsPresentation(path) {
		return fmt.Errorf("%w: %s", ErrNotPresentation, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	return nil
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// IsFilePath returns true if the string looks like a file path rather than a name.
// A string containing path separators (/, \) is treated as a path.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// DirWritable reports whether a file can be created inside dir.
// The probe file is removed before returning.
func DirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, ".slideview-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
