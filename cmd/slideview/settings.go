package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	slideview "github.com/alnah/go-slideview"
	"github.com/alnah/go-slideview/internal/config"
	"github.com/alnah/go-slideview/internal/hints"
	"github.com/alnah/go-slideview/internal/logging"
)

// settings is the resolved configuration shared by every command.
type settings struct {
	cfg *config.Config
	log zerolog.Logger
}

// loadSettings resolves configuration with precedence
// flags > environment > config file > defaults.
func loadSettings(f *commonFlags, env *Environment) (*settings, error) {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, environ())

	cfg := config.DefaultConfig()
	name := f.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
		}
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	applyFlags(f, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &settings{cfg: cfg, log: newLogger(f, cfg, env)}, nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(f *commonFlags, cfg *config.Config) {
	if f.cacheDir != "" {
		cfg.Cache.Dir = f.cacheDir
	}
	if f.timeout != "" {
		cfg.Converter.Timeout = f.timeout
	}
	if f.tool != "" {
		cfg.Converter.Tool = f.tool
	}
}

// newLogger builds the diagnostic logger. --verbose and --quiet win over log.level.
func newLogger(f *commonFlags, cfg *config.Config, env *Environment) zerolog.Logger {
	level := cfg.Log.Level
	switch {
	case f.verbose:
		level = "debug"
	case f.quiet:
		level = "error"
	}
	return logging.New(logging.Config{Level: level, Format: cfg.Log.Format, Output: env.Stderr})
}

// pipeline builds a conversion pipeline from the resolved settings.
// Values are already validated, so parse errors cannot occur here.
func (s *settings) pipeline(env *Environment) *slideview.Pipeline {
	timeout, _ := s.cfg.Timeout()
	args, _ := s.cfg.ExtraArgs()

	opts := []slideview.Option{
		slideview.WithCacheDir(s.cfg.Cache.Dir),
		slideview.WithTimeout(timeout),
		slideview.WithTool(s.cfg.Converter.Tool),
		slideview.WithExtraArgs(args),
		slideview.WithPlatform(env.GOOS),
		slideview.WithClock(env.Now),
		slideview.WithLogger(s.log),
	}
	if env.Runner != nil {
		opts = append(opts, slideview.WithRunner(env.Runner))
	}
	if env.PageCounter != nil {
		opts = append(opts, slideview.WithPageCounter(env.PageCounter))
	}
	return slideview.NewPipeline(opts...)
}

// viewerOptions maps viewer settings to options.
func (s *settings) viewerOptions(env *Environment) []slideview.ViewerOption {
	return []slideview.ViewerOption{
		slideview.WithQuality(s.cfg.Viewer.Quality),
		slideview.WithThumbnailWidth(s.cfg.Viewer.ThumbnailWidth),
		slideview.WithZoomStep(s.cfg.Viewer.ZoomStep),
		slideview.WithViewerLogger(s.log),
		slideview.WithOpener(env.OpenPDF),
	}
}

// sweep runs the best-effort activation sweep. Failures are only logged.
func (s *settings) sweep(p *slideview.Pipeline) {
	removed := p.SweepOlderThan(s.cfg.Cache.MaxAgeDays)
	if removed.Count > 0 {
		s.log.Debug().Int("removed", removed.Count).Msg("activation sweep")
	}
}
