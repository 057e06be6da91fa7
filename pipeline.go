package slideview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-slideview/internal/cache"
	"github.com/alnah/go-slideview/internal/hints"
	"github.com/alnah/go-slideview/internal/office"
)

// Compile-time interface implementation checks.
var (
	_ Converter     = (*Pipeline)(nil)
	_ office.Runner = office.ExecRunner{}
)

// Converter turns a presentation path into a PDF path.
// Pipeline is the production implementation; viewers accept any Converter.
type Converter interface {
	Convert(ctx context.Context, sourcePath string) ConversionResult
}

// PageCounter reports how many pages a PDF has. It validates converter output.
type PageCounter func(path string) (int, error)

// profileDirName is the isolated tool profile created inside each staging dir.
const profileDirName = "profile"

// supportedPlatforms are the desktop systems LibreOffice ships for.
var supportedPlatforms = map[string]bool{
	"linux":   true,
	"darwin":  true,
	"windows": true,
	"freebsd": true,
}

// SupportedPlatform reports whether goos can run the converter.
func SupportedPlatform(goos string) bool {
	return supportedPlatforms[goos]
}

// Pipeline converts presentations to PDF through a content-addressed cache.
// It is safe for concurrent use. Concurrent conversions of identical content
// share one tool invocation.
type Pipeline struct {
	store      *cache.Store
	runner     office.Runner
	strategies []office.Strategy
	countPages PageCounter
	log        zerolog.Logger

	cacheDir   string
	timeout    time.Duration
	tool       string
	candidates []string
	extraArgs  []string
	goos       string
	now        func() time.Time

	flights singleflight.Group

	mu    sync.Mutex
	found *office.Tool
}

// WithCacheDir sets the cache directory. Empty keeps the default under os.TempDir().
func WithCacheDir(dir string) Option {
	return func(p *Pipeline) {
		p.cacheDir = dir
	}
}

// WithTimeout bounds each converter strategy. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithRunner replaces the process runner (tests use fakes).
func WithRunner(r office.Runner) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithTool probes path before the platform candidates.
func WithTool(path string) Option {
	return func(p *Pipeline) {
		p.tool = path
	}
}

// WithCandidates replaces the platform candidate list.
func WithCandidates(candidates []string) Option {
	return func(p *Pipeline) {
		p.candidates = candidates
	}
}

// WithExtraArgs appends arguments to every converter invocation.
func WithExtraArgs(args []string) Option {
	return func(p *Pipeline) {
		p.extraArgs = args
	}
}

// WithStrategies replaces the primary and fallback strategies.
func WithStrategies(strategies ...office.Strategy) Option {
	return func(p *Pipeline) {
		if len(strategies) > 0 {
			p.strategies = strategies
		}
	}
}

// WithPageCounter replaces the output validator.
func WithPageCounter(fn PageCounter) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.countPages = fn
		}
	}
}

// WithPlatform overrides the GOOS used for candidate selection and support checks.
func WithPlatform(goos string) Option {
	return func(p *Pipeline) {
		p.goos = goos
	}
}

// WithClock sets the time source used by cache sweeps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = l
	}
}

// NewPipeline creates a Pipeline with default configuration.
// Use options to customize behavior (e.g., WithCacheDir, WithTimeout).
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		runner:     office.ExecRunner{},
		strategies: office.DefaultStrategies,
		countPages: api.PageCountFile,
		log:        zerolog.Nop(),
		timeout:    DefaultTimeout,
		goos:       runtime.GOOS,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.candidates == nil {
		p.candidates = office.Candidates(p.goos)
	}
	p.log = p.log.With().Str("component", "pipeline").Logger()
	p.store = cache.New(p.cacheDir, cache.WithClock(p.now), cache.WithLogger(p.log))

	return p
}

// CacheDir returns the directory holding converted PDFs.
func (p *Pipeline) CacheDir() string {
	return p.store.Dir()
}

// Convert returns the PDF for sourcePath, converting it on a cache miss.
// It never panics and never returns a Go error: every failure is reported
// through the result.
func (p *Pipeline) Convert(ctx context.Context, sourcePath string) (res ConversionResult) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("source", sourcePath).Msg("conversion panicked")
			res = failed(KindConversionFailed, fmt.Errorf("%w: internal error: %v", ErrConversionFailed, r))
		}
	}()

	if !SupportedPlatform(p.goos) {
		return failed(KindUnsupportedPlatform,
			fmt.Errorf("%w (%s)%s", ErrUnsupportedPlatform, p.goos, hints.ForUnsupportedPlatform()))
	}

	fingerprint, err := cache.FingerprintFile(sourcePath)
	if err != nil {
		return failed(KindConversionFailed, fmt.Errorf("%w: %w", ErrConversionFailed, err))
	}
	key := cache.NewKey(sourcePath, fingerprint)

	if entry, ok := p.store.Lookup(key); ok {
		p.log.Debug().Str("fingerprint", fingerprint).Str("path", entry.Path).Msg("cache hit")
		return ConversionResult{Success: true, Path: entry.Path, FromCache: true, Fingerprint: fingerprint}
	}

	// A shared flight runs under the context of the caller that started it.
	// When that caller gives up, waiters that are still live start over.
	for {
		v, err, _ := p.flights.Do(key.String(), func() (any, error) {
			return p.convertFresh(ctx, sourcePath, key), ctx.Err()
		})
		res = v.(ConversionResult)
		if err == nil || ctx.Err() != nil {
			break
		}
		p.log.Debug().Str("fingerprint", fingerprint).Msg("shared conversion canceled, retrying")
	}
	res.Fingerprint = fingerprint
	return res
}

// convertFresh runs the converter for key. Callers hold the singleflight slot.
func (p *Pipeline) convertFresh(ctx context.Context, sourcePath string, key cache.Key) ConversionResult {
	// A flight that finished just before ours may have filled the entry.
	if entry, ok := p.store.Lookup(key); ok {
		return ConversionResult{Success: true, Path: entry.Path, FromCache: true}
	}

	tool, err := p.Probe(ctx)
	if err != nil {
		if errors.Is(err, office.ErrNotFound) {
			return failed(KindToolUnavailable,
				fmt.Errorf("%w: %v%s", ErrToolUnavailable, err, hints.ForToolUnavailable(p.goos)))
		}
		return failed(KindConversionFailed, fmt.Errorf("%w: %w", ErrConversionFailed, err))
	}

	staging, cleanup, err := p.store.Stage()
	if err != nil {
		return failed(KindConversionFailed,
			fmt.Errorf("%w: %w%s", ErrConversionFailed, err, hints.ForCacheDirectory(p.store.Dir())))
	}
	defer cleanup()

	job := office.Job{
		Source:     sourcePath,
		OutDir:     staging,
		ProfileDir: filepath.Join(staging, profileDirName),
		Extra:      p.extraArgs,
	}

	log := p.log.With().Str("fingerprint", key.Fingerprint).Str("tool", tool.Path).Logger()

	var errs []error
	for _, s := range p.strategies {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		start := time.Now()
		produced, err := p.runStrategy(ctx, tool, s, job)
		if err != nil {
			log.Warn().Err(err).Str("strategy", s.Name).Msg("strategy failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}

		entry, err := p.store.Commit(key, produced)
		if err != nil {
			return failed(KindConversionFailed, fmt.Errorf("%w: %w", ErrConversionFailed, err))
		}
		log.Info().Str("strategy", s.Name).Dur("elapsed", time.Since(start)).
			Int64("bytes", entry.Size).Msg("converted")
		return ConversionResult{Success: true, Path: entry.Path, Strategy: s.Name}
	}

	msg := fmt.Errorf("%w: %w", ErrConversionFailed, errors.Join(errs...))
	if errors.Is(msg, office.ErrTimeout) {
		msg = fmt.Errorf("%w%s", msg, hints.ForTimeout())
	}
	return failed(KindConversionFailed, msg)
}

// runStrategy runs one strategy and checks that its output is a readable PDF.
// Rejected output is removed so the next strategy starts clean.
func (p *Pipeline) runStrategy(ctx context.Context, tool office.Tool, s office.Strategy, job office.Job) (string, error) {
	produced, err := office.Run(ctx, p.runner, tool.Path, s, job, p.timeout)
	if err != nil {
		return "", err
	}

	pages, err := p.countPages(produced)
	if err == nil && pages < 1 {
		err = errors.New("document has no pages")
	}
	if err != nil {
		_ = os.Remove(produced)
		return "", fmt.Errorf("%w: unreadable output: %v", office.ErrNoOutput, err)
	}
	return produced, nil
}

// Probe finds the converter tool. A successful probe is remembered for the
// life of the pipeline; failures are retried on the next call.
func (p *Pipeline) Probe(ctx context.Context) (office.Tool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.found != nil {
		return *p.found, nil
	}

	candidates := p.candidates
	if p.tool != "" {
		candidates = append([]string{p.tool}, candidates...)
	}

	tool, err := office.Probe(ctx, p.runner, candidates)
	if err != nil {
		return office.Tool{}, err
	}
	p.log.Debug().Str("tool", tool.Path).Str("version", tool.Version).Msg("converter found")
	p.found = &tool
	return tool, nil
}

// SweepOlderThan deletes cache entries older than days (default 7 when
// days <= 0). Failures are logged, never returned.
func (p *Pipeline) SweepOlderThan(days int) CacheStats {
	if days <= 0 {
		days = DefaultMaxAgeDays
	}
	report := p.store.SweepOlderThan(time.Duration(days) * 24 * time.Hour)
	if report.Removed > 0 || report.Failed > 0 {
		p.log.Info().Int("removed", report.Removed).Int("failed", report.Failed).
			Int64("freed", report.Freed).Msg("cache sweep")
	}
	return CacheStats{Count: report.Removed, TotalSize: report.Freed}
}

// ClearAll deletes every cache entry and reports what was freed.
// Entries that could not be removed are logged and left out of the count.
func (p *Pipeline) ClearAll() CacheStats {
	freed, err := p.store.Clear()
	if err != nil {
		p.log.Warn().Err(err).Msg("cache clear incomplete")
	}
	return CacheStats(freed)
}

// Stats reports the number and total size of cache entries.
func (p *Pipeline) Stats() CacheStats {
	stats, err := p.store.Stats()
	if err != nil {
		p.log.Warn().Err(err).Msg("reading cache stats")
		return CacheStats{}
	}
	return CacheStats(stats)
}

// failed builds a failure result from err.
func failed(kind ErrorKind, err error) ConversionResult {
	return ConversionResult{Error: err.Error(), Kind: kind}
}
