package slideview

// Notes:
// - No test runs LibreOffice. fakeTool stands in for soffice and writes a
//   placeholder PDF; WithPageCounter replaces pdfcpu validation so the
//   placeholder counts as a readable document.
// - The default PageCounter (pdfcpu) is exercised only through its rejection
//   of non-PDF output in TestPipeline_DefaultValidatorRejectsGarbage.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-slideview/internal/office"
)

// ---------------------------------------------------------------------------
// TestPipeline_Convert - Cache behavior
// ---------------------------------------------------------------------------

func TestPipeline_ConvertThenHit(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool)
	src := writeDeck(t, t.TempDir(), "Quarterly Review.pptx", "slides v1")

	first := p.Convert(context.Background(), src)
	if !first.Success {
		t.Fatalf("first Convert failed: %s", first.Error)
	}
	if first.FromCache {
		t.Error("first Convert should not come from cache")
	}
	if first.Strategy != office.StrategyPrintToFile {
		t.Errorf("Strategy = %q, want %q", first.Strategy, office.StrategyPrintToFile)
	}
	wantName := "Quarterly Review_" + md5Hex("slides v1") + ".pdf"
	if filepath.Base(first.Path) != wantName {
		t.Errorf("entry name = %q, want %q", filepath.Base(first.Path), wantName)
	}
	if first.Fingerprint != md5Hex("slides v1") {
		t.Errorf("Fingerprint = %q", first.Fingerprint)
	}

	second := p.Convert(context.Background(), src)
	if !second.Success || !second.FromCache {
		t.Fatalf("second Convert = %+v, want cache hit", second)
	}
	if second.Path != first.Path {
		t.Errorf("cache hit path = %q, want %q", second.Path, first.Path)
	}
	if n := tool.conversions(); n != 1 {
		t.Errorf("tool ran %d conversions, want 1", n)
	}
}

func TestPipeline_ChangedContentNewEntry(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool)
	dir := t.TempDir()
	src := writeDeck(t, dir, "deck.pptx", "abcdef")

	a := p.Convert(context.Background(), src)
	writeDeck(t, dir, "deck.pptx", "abcdeF")
	b := p.Convert(context.Background(), src)

	if !a.Success || !b.Success {
		t.Fatalf("conversions failed: %q / %q", a.Error, b.Error)
	}
	if b.FromCache {
		t.Error("changed content must not hit the old entry")
	}
	if a.Path == b.Path || a.Fingerprint == b.Fingerprint {
		t.Error("one changed byte should give a new fingerprint and entry")
	}
	if st := p.Stats(); st.Count != 2 {
		t.Errorf("Stats().Count = %d, want 2", st.Count)
	}
}

func TestPipeline_PreexistingEntryNeedsNoTool(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{} // nothing installed
	p := newTestPipeline(t, tool)
	src := writeDeck(t, t.TempDir(), "deck.pptx", "cached")

	if err := os.MkdirAll(p.CacheDir(), 0o750); err != nil {
		t.Fatal(err)
	}
	entry := filepath.Join(p.CacheDir(), "deck_"+md5Hex("cached")+".pdf")
	if err := os.WriteFile(entry, []byte("%PDF"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := p.Convert(context.Background(), src)
	if !res.Success || !res.FromCache || res.Path != entry {
		t.Fatalf("Convert = %+v, want hit on %s", res, entry)
	}
	if tool.probeCount() != 0 || tool.conversions() != 0 {
		t.Error("a cache hit must not touch the tool")
	}
}

// ---------------------------------------------------------------------------
// TestPipeline_Strategies - Primary, fallback and failure
// ---------------------------------------------------------------------------

func TestPipeline_FallbackStrategy(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{
		available: []string{"soffice"},
		fail:      map[string]bool{"--print-to-file": true},
	}
	p := newTestPipeline(t, tool)
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	res := p.Convert(context.Background(), src)
	if !res.Success {
		t.Fatalf("Convert failed: %s", res.Error)
	}
	if res.Strategy != office.StrategyExportPDF {
		t.Errorf("Strategy = %q, want fallback %q", res.Strategy, office.StrategyExportPDF)
	}
	if tool.conversions() != 2 {
		t.Errorf("conversions = %d, want 2", tool.conversions())
	}
}

func TestPipeline_AllStrategiesFail(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{
		available: []string{"soffice"},
		fail:      map[string]bool{"--print-to-file": true, "--convert-to": true},
	}
	p := newTestPipeline(t, tool)
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	res := p.Convert(context.Background(), src)
	if res.Success || res.Path != "" {
		t.Fatalf("Convert = %+v, want failure without path", res)
	}
	if res.Kind != KindConversionFailed {
		t.Errorf("Kind = %s, want conversion-failed", res.Kind)
	}
	if !strings.HasPrefix(res.Error, "conversion failed: ") {
		t.Errorf("Error = %q, want conversion failed prefix", res.Error)
	}
	for _, want := range []string{office.StrategyPrintToFile, office.StrategyExportPDF, "could not be loaded"} {
		if !strings.Contains(res.Error, want) {
			t.Errorf("Error should mention %q: %q", want, res.Error)
		}
	}
	if st := p.Stats(); st.Count != 0 {
		t.Errorf("failed conversion left %d entries", st.Count)
	}
}

func TestPipeline_UnreadableOutputFallsBack(t *testing.T) {
	t.Parallel()

	calls := 0
	counter := func(string) (int, error) {
		calls++
		if calls == 1 {
			return 0, nil
		}
		return 3, nil
	}
	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool, WithPageCounter(counter))
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	res := p.Convert(context.Background(), src)
	if !res.Success || res.Strategy != office.StrategyExportPDF {
		t.Fatalf("Convert = %+v, want success through fallback", res)
	}
}

func TestPipeline_DefaultValidatorRejectsGarbage(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := NewPipeline(
		WithCacheDir(filepath.Join(t.TempDir(), "cache")),
		WithRunner(tool),
		WithCandidates([]string{"soffice"}),
		WithPlatform("linux"),
	)
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	res := p.Convert(context.Background(), src)
	if res.Success {
		t.Fatal("placeholder bytes should not pass PDF validation")
	}
	if !strings.Contains(res.Error, "unreadable output") {
		t.Errorf("Error = %q", res.Error)
	}
}

// ---------------------------------------------------------------------------
// TestPipeline_ToolDiscovery
// ---------------------------------------------------------------------------

func TestPipeline_NoTool(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{}
	p := newTestPipeline(t, tool, WithCandidates([]string{"soffice", "libreoffice"}))
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	res := p.Convert(context.Background(), src)
	if res.Success || res.Kind != KindToolUnavailable {
		t.Fatalf("Convert = %+v, want tool-unavailable", res)
	}
	for _, want := range []string{"not available", "soffice, libreoffice", "libreoffice.org", "hint:"} {
		if !strings.Contains(res.Error, want) {
			t.Errorf("Error should mention %q: %q", want, res.Error)
		}
	}
}

func TestPipeline_ExplicitToolProbedFirst(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice", "/custom/soffice"}}
	p := newTestPipeline(t, tool, WithTool("/custom/soffice"))

	// Absolute paths that do not exist are skipped without running them.
	found, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if found.Path != "soffice" {
		t.Errorf("Probe() = %q, want fallback to soffice for a missing explicit path", found.Path)
	}

	dir := t.TempDir()
	explicit := writeDeck(t, dir, "soffice", "#!/bin/sh\n")
	tool2 := &fakeTool{available: []string{"soffice", explicit}}
	p2 := newTestPipeline(t, tool2, WithTool(explicit))
	found, err = p2.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if found.Path != explicit {
		t.Errorf("Probe() = %q, want explicit %q", found.Path, explicit)
	}
}

func TestPipeline_ProbeIsRemembered(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool)

	for range 3 {
		if _, err := p.Probe(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if n := tool.probeCount(); n != 1 {
		t.Errorf("probes = %d, want 1", n)
	}
}

func TestPipeline_UnsupportedPlatform(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool, WithPlatform("js"))
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	res := p.Convert(context.Background(), src)
	if res.Success || res.Kind != KindUnsupportedPlatform {
		t.Fatalf("Convert = %+v, want unsupported-platform", res)
	}
	if tool.probeCount() != 0 {
		t.Error("unsupported platform should fail before probing")
	}
}

// ---------------------------------------------------------------------------
// TestPipeline_Robustness
// ---------------------------------------------------------------------------

func TestPipeline_MissingSource(t *testing.T) {
	t.Parallel()

	p := newTestPipeline(t, &fakeTool{available: []string{"soffice"}})

	res := p.Convert(context.Background(), filepath.Join(t.TempDir(), "gone.pptx"))
	if res.Success || res.Kind != KindConversionFailed || res.Path != "" {
		t.Fatalf("Convert = %+v, want conversion failure", res)
	}
}

func TestPipeline_PanicBecomesResult(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}, panicOn: "--print-to-file"}
	p := newTestPipeline(t, tool)
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	res := p.Convert(context.Background(), src)
	if res.Success {
		t.Fatal("panicking tool should not succeed")
	}
	if !strings.Contains(res.Error, "tool exploded") {
		t.Errorf("Error = %q, want panic value", res.Error)
	}
}

func TestPipeline_ConcurrentSameContent(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool)
	src := writeDeck(t, t.TempDir(), "deck.pptx", "shared")

	var wg sync.WaitGroup
	results := make([]ConversionResult, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = p.Convert(context.Background(), src)
		}()
	}
	wg.Wait()

	for i, r := range results {
		if !r.Success {
			t.Errorf("result %d failed: %s", i, r.Error)
		}
		if r.Path != results[0].Path {
			t.Errorf("result %d path = %q, want %q", i, r.Path, results[0].Path)
		}
	}
	if n := tool.conversions(); n != 1 {
		t.Errorf("tool ran %d conversions, want 1", n)
	}
}

// stallingTool blocks its first conversion until the caller's context ends,
// then behaves like the wrapped fakeTool.
type stallingTool struct {
	*fakeTool
	started chan struct{}
	once    sync.Once
}

func (s *stallingTool) Run(ctx context.Context, name string, args []string, opts office.RunOptions) (office.Output, error) {
	if len(args) == 1 && args[0] == "--version" {
		return s.fakeTool.Run(ctx, name, args, opts)
	}
	stall := false
	s.once.Do(func() { stall = true })
	if stall {
		close(s.started)
		<-ctx.Done()
		return office.Output{ExitCode: -1}, ctx.Err()
	}
	return s.fakeTool.Run(ctx, name, args, opts)
}

func TestPipeline_CanceledStarterDoesNotFailWaiters(t *testing.T) {
	t.Parallel()

	tool := &stallingTool{fakeTool: &fakeTool{available: []string{"soffice"}}, started: make(chan struct{})}
	p := NewPipeline(
		WithCacheDir(filepath.Join(t.TempDir(), "cache")),
		WithRunner(tool),
		WithCandidates([]string{"soffice"}),
		WithPageCounter(fivePages),
		WithPlatform("linux"),
	)
	src := writeDeck(t, t.TempDir(), "deck.pptx", "shared")

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan ConversionResult, 1)
	go func() { first <- p.Convert(ctx, src) }()
	<-tool.started

	second := make(chan ConversionResult, 1)
	go func() { second <- p.Convert(context.Background(), src) }()
	time.Sleep(50 * time.Millisecond) // let the second caller join the flight
	cancel()

	if res := <-first; res.Success {
		t.Errorf("canceled caller: Convert = %+v, want failure", res)
	}
	select {
	case res := <-second:
		if !res.Success {
			t.Fatalf("live caller: Convert failed: %s", res.Error)
		}
		if _, err := os.Stat(res.Path); err != nil {
			t.Errorf("cache entry missing: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("live caller did not return")
	}
}

func TestPipeline_ProfileIsolatedPerConversion(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool, WithExtraArgs([]string{"--nologo"}))
	src := writeDeck(t, t.TempDir(), "deck.pptx", "x")

	if res := p.Convert(context.Background(), src); !res.Success {
		t.Fatal(res.Error)
	}
	args := tool.lastArgs
	if !strings.HasPrefix(args[0], "-env:UserInstallation=file://") {
		t.Errorf("first arg = %q, want isolated profile", args[0])
	}
	if args[len(args)-2] != "--nologo" {
		t.Errorf("extra args should precede the source: %q", args)
	}
	if !filepath.IsAbs(args[len(args)-1]) {
		t.Errorf("source %q should be absolute", args[len(args)-1])
	}
}

// ---------------------------------------------------------------------------
// TestPipeline_Maintenance - Sweep, clear, stats
// ---------------------------------------------------------------------------

func TestPipeline_ClearAllThenStats(t *testing.T) {
	t.Parallel()

	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool)
	dir := t.TempDir()
	for _, c := range []string{"a", "b", "c"} {
		if res := p.Convert(context.Background(), writeDeck(t, dir, c+".pptx", c)); !res.Success {
			t.Fatal(res.Error)
		}
	}

	before := p.Stats()
	if before.Count != 3 || before.TotalSize == 0 {
		t.Fatalf("Stats() = %+v, want 3 entries", before)
	}

	freed := p.ClearAll()
	if freed != before {
		t.Errorf("ClearAll() = %+v, want %+v", freed, before)
	}
	if after := p.Stats(); after != (CacheStats{}) {
		t.Errorf("Stats() after clear = %+v, want zero", after)
	}
}

func TestPipeline_SweepOlderThan(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tool := &fakeTool{available: []string{"soffice"}}
	p := newTestPipeline(t, tool, WithClock(func() time.Time { return now }))
	dir := t.TempDir()

	old := p.Convert(context.Background(), writeDeck(t, dir, "old.pptx", "old"))
	fresh := p.Convert(context.Background(), writeDeck(t, dir, "fresh.pptx", "fresh"))
	if err := os.Chtimes(old.Path, now, now.Add(-8*24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(fresh.Path, now, now.Add(-6*24*time.Hour)); err != nil {
		t.Fatal(err)
	}

	swept := p.SweepOlderThan(7)
	if swept.Count != 1 {
		t.Errorf("swept %d entries, want 1", swept.Count)
	}
	if _, err := os.Stat(old.Path); !errors.Is(err, os.ErrNotExist) {
		t.Error("old entry should be deleted")
	}
	if _, err := os.Stat(fresh.Path); err != nil {
		t.Errorf("fresh entry should remain: %v", err)
	}
}

func TestPipeline_MaintenanceOnMissingDirectory(t *testing.T) {
	t.Parallel()

	p := NewPipeline(WithCacheDir(filepath.Join(t.TempDir(), "never-created")))

	if st := p.Stats(); st != (CacheStats{}) {
		t.Errorf("Stats() = %+v", st)
	}
	if st := p.ClearAll(); st != (CacheStats{}) {
		t.Errorf("ClearAll() = %+v", st)
	}
	if st := p.SweepOlderThan(0); st != (CacheStats{}) {
		t.Errorf("SweepOlderThan() = %+v", st)
	}
}
