// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-slideview/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// installCommands maps a platform to the usual way of installing LibreOffice.
var installCommands = map[string]string{
	"linux":   "sudo apt install libreoffice-impress (or dnf install libreoffice-impress)",
	"darwin":  "brew install --cask libreoffice",
	"windows": "winget install TheDocumentFoundation.LibreOffice",
	"freebsd": "pkg install libreoffice",
}

// ForToolUnavailable returns hints for a missing converter on goos.
// The result always says what to install and where to point the tool setting.
func ForToolUnavailable(goos string) string {
	hints := []string{"install LibreOffice from https://www.libreoffice.org/download/"}
	if cmd, ok := installCommands[goos]; ok {
		hints = append(hints, "or run: "+cmd)
	}
	if IsInContainer() {
		hints = append(hints, "in containers, add LibreOffice to the image")
	}
	if os.Getenv("SLIDEVIEW_TOOL") == "" {
		hints = append(hints, "set SLIDEVIEW_TOOL or converter.tool if soffice lives elsewhere")
	}
	return formatHints(hints)
}

// ForUnsupportedPlatform explains that only desktop platforms can convert.
func ForUnsupportedPlatform() string {
	return format("conversion needs a desktop OS where LibreOffice runs (Linux, macOS, Windows, FreeBSD)")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large presentations, use --timeout or converter.timeout")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-slideview/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-slideview") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForCacheDirectory returns hints for cache directory errors.
func ForCacheDirectory(dir string) string {
	return format("check that " + dir + " is writable, or set SLIDEVIEW_CACHE_DIR")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
