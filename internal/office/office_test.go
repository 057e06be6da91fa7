package office

// Notes:
// - No test runs a real LibreOffice; fakeRunner records invocations and can
//   write the expected PDF into the job's output directory.
// - ExecRunner is exercised against /bin/sh in runner_unix_test.go.

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - fake runner
// ---------------------------------------------------------------------------

type call struct {
	name string
	args []string
	opts RunOptions
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []call
	fn    func(name string, args []string, opts RunOptions) (Output, error)
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, opts RunOptions) (Output, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: slices.Clone(args), opts: opts})
	f.mu.Unlock()
	if f.fn == nil {
		return Output{}, nil
	}
	return f.fn(name, args, opts)
}

func (f *fakeRunner) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.name
	}
	return names
}

// ---------------------------------------------------------------------------
// TestCandidates
// ---------------------------------------------------------------------------

func TestCandidates(t *testing.T) {
	t.Parallel()

	for _, goos := range []string{"linux", "darwin", "windows", "freebsd"} {
		t.Run(goos, func(t *testing.T) {
			t.Parallel()

			c := Candidates(goos)
			if len(c) == 0 {
				t.Fatal("no candidates")
			}
			hasSoffice := false
			for _, name := range c {
				if strings.Contains(name, "soffice") {
					hasSoffice = true
				}
			}
			if !hasSoffice {
				t.Errorf("candidates for %s should include soffice: %v", goos, c)
			}
		})
	}

	if !strings.HasSuffix(Candidates("windows")[0], ".exe") {
		t.Error("windows should try the installed .exe first")
	}
}

// ---------------------------------------------------------------------------
// TestProbe
// ---------------------------------------------------------------------------

func TestProbe_FirstRespondingCandidateWins(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{fn: func(name string, args []string, _ RunOptions) (Output, error) {
		if !slices.Equal(args, []string{"--version"}) {
			t.Errorf("probe args = %v, want [--version]", args)
		}
		if name == "soffice" {
			return Output{Stdout: "LibreOffice 24.8.4.2\n"}, nil
		}
		return Output{ExitCode: -1}, errors.New("executable file not found")
	}}

	tool, err := Probe(context.Background(), r, []string{"libreoffice", "soffice", "later"})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if tool.Path != "soffice" {
		t.Errorf("Path = %q, want soffice", tool.Path)
	}
	if tool.Version != "LibreOffice 24.8.4.2" {
		t.Errorf("Version = %q", tool.Version)
	}
	if got := r.names(); !slices.Equal(got, []string{"libreoffice", "soffice"}) {
		t.Errorf("probed %v, want [libreoffice soffice]", got)
	}
}

func TestProbe_NothingAvailable(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "no-such-soffice")
	r := &fakeRunner{fn: func(string, []string, RunOptions) (Output, error) {
		return Output{}, errors.New("not found")
	}}

	_, err := Probe(context.Background(), r, []string{"soffice", "", "soffice", missing})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error should be *NotFoundError, got %T", err)
	}
	if !slices.Equal(nf.Tried, []string{"soffice", missing}) {
		t.Errorf("Tried = %v", nf.Tried)
	}
	if got := r.names(); !slices.Equal(got, []string{"soffice"}) {
		t.Errorf("missing absolute path should not be executed, ran %v", got)
	}
}

func TestProbe_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{fn: func(string, []string, RunOptions) (Output, error) {
		cancel()
		return Output{}, context.Canceled
	}}

	_, err := Probe(ctx, r, []string{"a", "b"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(r.names()) != 1 {
		t.Error("probe should stop after cancellation")
	}
}

// ---------------------------------------------------------------------------
// TestStrategy_Args
// ---------------------------------------------------------------------------

func TestStrategy_Args(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	job := Job{
		Source:     filepath.Join(dir, "-rf deck.pptx"),
		OutDir:     filepath.Join(dir, "out"),
		ProfileDir: filepath.Join(dir, "profile"),
		Extra:      []string{"--infilter=Impress MS PowerPoint 2007 XML"},
	}

	t.Run("print to file", func(t *testing.T) {
		t.Parallel()

		args, err := PrintToFile.Args(job)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(args[0], "-env:UserInstallation=file://") {
			t.Errorf("first arg should set the profile, got %q", args[0])
		}
		if !slices.Contains(args, "--headless") || !slices.Contains(args, "--print-to-file") {
			t.Errorf("args = %v", args)
		}
		if args[len(args)-1] != job.Source {
			t.Errorf("source must be last and absolute, got %q", args[len(args)-1])
		}
		if args[len(args)-2] != job.Extra[0] {
			t.Errorf("extra args should precede the source: %v", args)
		}
		i := slices.Index(args, "--outdir")
		if i < 0 || args[i+1] != job.OutDir {
			t.Errorf("--outdir missing or wrong: %v", args)
		}
	})

	t.Run("export pdf", func(t *testing.T) {
		t.Parallel()

		args, err := ExportPDF.Args(Job{Source: job.Source, OutDir: job.OutDir})
		if err != nil {
			t.Fatal(err)
		}
		if strings.HasPrefix(args[0], "-env:") {
			t.Error("no profile argument expected without ProfileDir")
		}
		i := slices.Index(args, "--convert-to")
		if i < 0 {
			t.Fatalf("--convert-to missing: %v", args)
		}
		if !strings.HasPrefix(args[i+1], "pdf:impress_pdf_Export:{") {
			t.Errorf("filter = %q", args[i+1])
		}
	})
}

func TestExportFilterOptions(t *testing.T) {
	t.Parallel()

	var opts map[string]filterValue
	if err := json.Unmarshal([]byte(ExportFilterOptions()), &opts); err != nil {
		t.Fatalf("filter options are not valid JSON: %v", err)
	}

	want := map[string]string{
		"Quality":                "100",
		"UseLosslessCompression": "true",
		"EmbedStandardFonts":     "true",
		"IsSkipEmptyPages":       "false",
		"ExportBookmarks":        "true",
		"SelectPdfVersion":       "17",
	}
	for k, v := range want {
		if opts[k].Value != v {
			t.Errorf("%s = %q, want %q", k, opts[k].Value, v)
		}
	}
	if ExportFilterOptions() != ExportFilterOptions() {
		t.Error("filter string should be stable")
	}
}

func TestProfileURL(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "my profile")
	u, err := ProfileURL(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u, "file:///") {
		t.Errorf("ProfileURL = %q, want file:/// prefix", u)
	}
	if !strings.Contains(u, "my%20profile") {
		t.Errorf("spaces should be escaped: %q", u)
	}
}

// ---------------------------------------------------------------------------
// TestRun - strategy execution
// ---------------------------------------------------------------------------

func TestRun_ProducesOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	job := Job{Source: filepath.Join(dir, "deck.pptx"), OutDir: dir}
	r := &fakeRunner{fn: func(_ string, _ []string, opts RunOptions) (Output, error) {
		if opts.Timeout != 90*time.Second {
			t.Errorf("timeout = %s, want 90s", opts.Timeout)
		}
		return Output{}, os.WriteFile(filepath.Join(opts.Dir, "deck.pdf"), []byte("%PDF"), 0o600)
	}}

	got, err := Run(context.Background(), r, "soffice", ExportPDF, job, 90*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != filepath.Join(dir, "deck.pdf") {
		t.Errorf("produced = %q", got)
	}
}

func TestRun_NoOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	job := Job{Source: filepath.Join(dir, "deck.pptx"), OutDir: dir}
	r := &fakeRunner{fn: func(string, []string, RunOptions) (Output, error) {
		return Output{Stderr: "Error: source file could not be loaded"}, nil
	}}

	_, err := Run(context.Background(), r, "soffice", PrintToFile, job, time.Second)
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("error = %v, want ErrNoOutput", err)
	}
	if !strings.Contains(err.Error(), "could not be loaded") {
		t.Errorf("error should quote stderr: %v", err)
	}
}

func TestRun_RunnerError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	job := Job{Source: filepath.Join(dir, "deck.pptx"), OutDir: dir}
	r := &fakeRunner{fn: func(string, []string, RunOptions) (Output, error) {
		return Output{ExitCode: -1}, ErrTimeout
	}}

	_, err := Run(context.Background(), r, "soffice", PrintToFile, job, time.Second)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("error = %v, want ErrTimeout", err)
	}
}

func TestWithStderr_Truncates(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxStderrInError*2) + "END"
	err := withStderr(errors.New("boom"), long)
	msg := err.Error()
	if !strings.HasSuffix(msg, "END") {
		t.Error("tail of stderr should be kept")
	}
	if len(msg) > maxStderrInError+20 {
		t.Errorf("message too long: %d", len(msg))
	}
}
