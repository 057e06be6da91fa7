package office

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-slideview/internal/fileutil"
)

// ErrNoOutput is returned when the tool exits cleanly without writing a PDF.
var ErrNoOutput = errors.New("converter produced no output")

// maxStderrInError caps how much tool output is quoted in an error.
const maxStderrInError = 400

// Strategy names.
const (
	StrategyPrintToFile = "print-to-file"
	StrategyExportPDF   = "export-pdf"
)

// Job describes one conversion request.
type Job struct {
	Source     string   // presentation file, made absolute before use
	OutDir     string   // directory the tool writes <base>.pdf into
	ProfileDir string   // isolated user profile, empty = tool default
	Extra      []string // extra arguments placed before the source path
}

// Strategy is one way of asking the tool for a PDF.
type Strategy struct {
	Name string
	args func(outDir string) []string
}

// PrintToFile asks the tool to print the document to a file in OutDir.
var PrintToFile = Strategy{
	Name: StrategyPrintToFile,
	args: func(outDir string) []string {
		return []string{"--print-to-file", "--outdir", outDir}
	},
}

// ExportPDF converts through the Impress PDF export filter tuned for fidelity.
var ExportPDF = Strategy{
	Name: StrategyExportPDF,
	args: func(outDir string) []string {
		return []string{"--convert-to", "pdf:impress_pdf_Export:" + ExportFilterOptions(), "--outdir", outDir}
	},
}

// DefaultStrategies is the order the pipeline tries.
var DefaultStrategies = []Strategy{PrintToFile, ExportPDF}

// filterValue is one typed property in LibreOffice's JSON filter syntax.
type filterValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ExportFilterOptions returns the JSON filter string: maximum quality,
// lossless images, embedded fonts, no skipped pages, bookmarks, PDF 1.7.
func ExportFilterOptions() string {
	opts := map[string]filterValue{
		"Quality":                {Type: "long", Value: "100"},
		"UseLosslessCompression": {Type: "boolean", Value: "true"},
		"ReduceImageResolution":  {Type: "boolean", Value: "false"},
		"EmbedStandardFonts":     {Type: "boolean", Value: "true"},
		"IsSkipEmptyPages":       {Type: "boolean", Value: "false"},
		"ExportBookmarks":        {Type: "boolean", Value: "true"},
		"SelectPdfVersion":       {Type: "long", Value: "17"},
	}
	// Map keys marshal sorted, so the string is stable.
	b, _ := json.Marshal(opts)
	return string(b)
}

// Args builds the full argument vector for job.
func (s Strategy) Args(job Job) ([]string, error) {
	src, err := filepath.Abs(job.Source)
	if err != nil {
		return nil, fmt.Errorf("resolving source path: %w", err)
	}
	outDir, err := filepath.Abs(job.OutDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	var args []string
	if job.ProfileDir != "" {
		profile, err := ProfileURL(job.ProfileDir)
		if err != nil {
			return nil, err
		}
		args = append(args, "-env:UserInstallation="+profile)
	}
	args = append(args, "--headless", "--norestore", "--nolockcheck")
	args = append(args, s.args(outDir)...)
	args = append(args, job.Extra...)
	// Absolute, so a name like "-rf.pptx" can never parse as an option.
	args = append(args, src)
	return args, nil
}

// ProfileURL converts a directory to the file URL LibreOffice expects.
func ProfileURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving profile directory: %w", err)
	}
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // C:/... on Windows
	}
	return (&url.URL{Scheme: "file", Path: p}).String(), nil
}

// ExpectedOutput is where the tool writes the PDF for job.
func ExpectedOutput(job Job) string {
	return filepath.Join(job.OutDir, fileutil.BaseName(job.Source)+".pdf")
}

// Run executes strategy s with tool and returns the produced PDF path.
func Run(ctx context.Context, runner Runner, tool string, s Strategy, job Job, timeout time.Duration) (string, error) {
	args, err := s.Args(job)
	if err != nil {
		return "", err
	}

	out, err := runner.Run(ctx, tool, args, RunOptions{Timeout: timeout, Dir: job.OutDir})
	if err != nil {
		return "", withStderr(err, out.Stderr)
	}

	produced := ExpectedOutput(job)
	info, statErr := os.Stat(produced)
	if statErr != nil || info.Size() == 0 {
		return "", withStderr(fmt.Errorf("%w: expected %s", ErrNoOutput, filepath.Base(produced)), out.Stderr)
	}
	return produced, nil
}

// withStderr appends the trimmed tail of stderr to err.
func withStderr(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err
	}
	if len(stderr) > maxStderrInError {
		stderr = "..." + stderr[len(stderr)-maxStderrInError:]
	}
	return fmt.Errorf("%w: %s", err, stderr)
}
