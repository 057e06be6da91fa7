package office

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-slideview/internal/fileutil"
)

// ErrNotFound is the cause of every NotFoundError.
var ErrNotFound = errors.New("no office converter found")

// probeTimeout bounds each "--version" check. A cold soffice start is slow.
const probeTimeout = 20 * time.Second

// Tool is a converter executable that answered the version probe.
type Tool struct {
	Path    string
	Version string
}

// NotFoundError lists every candidate that was tried.
type NotFoundError struct {
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v (tried %s)", ErrNotFound, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Candidates returns the ordered converter locations for a platform.
// Bare names are resolved through PATH when executed.
func Candidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\LibreOffice\program\soffice.exe`,
			`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
			"soffice.exe",
			"soffice",
		}
	case "darwin":
		return []string{
			"/Applications/LibreOffice.app/Contents/MacOS/soffice",
			"/opt/homebrew/bin/soffice",
			"/usr/local/bin/soffice",
			"soffice",
			"libreoffice",
		}
	default:
		return []string{
			"libreoffice",
			"soffice",
			"/usr/bin/libreoffice",
			"/usr/bin/soffice",
			"/usr/local/bin/soffice",
			"/usr/lib/libreoffice/program/soffice",
			"/opt/libreoffice/program/soffice",
			"/snap/bin/libreoffice",
		}
	}
}

// Probe returns the first candidate that answers "--version".
// Duplicates and empty entries are skipped. Absolute paths that do not exist
// are recorded as tried without being executed.
func Probe(ctx context.Context, runner Runner, candidates []string) (Tool, error) {
	seen := make(map[string]bool, len(candidates))
	tried := make([]string, 0, len(candidates))

	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		tried = append(tried, c)

		if filepath.IsAbs(c) && !fileutil.FileExists(c) {
			continue
		}

		out, err := runner.Run(ctx, c, []string{"--version"}, RunOptions{Timeout: probeTimeout})
		if err != nil {
			if ctx.Err() != nil {
				return Tool{}, ctx.Err()
			}
			continue
		}
		return Tool{Path: c, Version: strings.TrimSpace(out.Stdout)}, nil
	}

	return Tool{}, &NotFoundError{Tried: tried}
}
