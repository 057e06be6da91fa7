package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/shlex"

	"github.com/alnah/go-slideview/internal/fileutil"
	"github.com/alnah/go-slideview/internal/logging"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrOutOfRange      = errors.New("value out of range")
	ErrInvalidValue    = errors.New("invalid value")
	ErrInputTooLarge   = errors.New("config input exceeds maximum size")
)

// MaxInputSize limits config input to prevent memory exhaustion (1MB).
var MaxInputSize = 1 << 20

// AppDirName is the directory under the user config dir searched for configs.
const AppDirName = "go-slideview"

// Defaults.
const (
	DefaultMaxAgeDays     = 7
	DefaultTimeout        = 90 * time.Second
	DefaultQuality        = 2.0
	DefaultThumbnailWidth = 120
	DefaultZoomStep       = 0.25
)

// Bounds enforced by Validate.
const (
	MaxAgeDays        = 3650
	MaxTimeout        = time.Hour
	MinQuality        = 0.5
	MaxQuality        = 4.0
	MinThumbnailWidth = 16
	MaxThumbnailWidth = 1024
	MinZoomStep       = 0.05
	MaxZoomStep       = 1.0
	MaxPathLength     = 4096
	MaxExtraArgs      = 1024
)

// Config holds all configuration for conversion and viewing.
type Config struct {
	Cache     CacheConfig     `yaml:"cache"`
	Converter ConverterConfig `yaml:"converter"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Log       LogConfig       `yaml:"log"`
}

// CacheConfig defines where converted PDFs live and how long they are kept.
type CacheConfig struct {
	Dir        string `yaml:"dir"`        // Empty = os.TempDir()/slideview-cache
	MaxAgeDays int    `yaml:"maxAgeDays"` // 0 = default (7)
}

// ConverterConfig defines the external office converter.
type ConverterConfig struct {
	Tool      string `yaml:"tool"`      // Explicit soffice path, probed first
	Timeout   string `yaml:"timeout"`   // Go duration, e.g. "90s"
	ExtraArgs string `yaml:"extraArgs"` // Shell-style words appended to every invocation
}

// ViewerConfig defines rendering parameters.
type ViewerConfig struct {
	Quality        float64 `yaml:"quality"`
	ThumbnailWidth int     `yaml:"thumbnailWidth"`
	ZoomStep       float64 `yaml:"zoomStep"`
}

// LogConfig defines diagnostic logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error, disabled
	Format string `yaml:"format"` // console or json
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Cache:     CacheConfig{MaxAgeDays: DefaultMaxAgeDays},
		Converter: ConverterConfig{Timeout: DefaultTimeout.String()},
		Viewer: ViewerConfig{
			Quality:        DefaultQuality,
			ThumbnailWidth: DefaultThumbnailWidth,
			ZoomStep:       DefaultZoomStep,
		},
		Log: LogConfig{Level: "warn", Format: logging.FormatConsole},
	}
}

// Validate checks bounds. Zero values mean "use the default" and pass.
// Called automatically by LoadConfig.
func (c *Config) Validate() error {
	if err := validateFieldLength("cache.dir", c.Cache.Dir, MaxPathLength); err != nil {
		return err
	}
	if c.Cache.MaxAgeDays < 0 || c.Cache.MaxAgeDays > MaxAgeDays {
		return fmt.Errorf("%w: cache.maxAgeDays must be between 0 and %d, got %d", ErrOutOfRange, MaxAgeDays, c.Cache.MaxAgeDays)
	}

	if err := validateFieldLength("converter.tool", c.Converter.Tool, MaxPathLength); err != nil {
		return err
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if err := validateFieldLength("converter.extraArgs", c.Converter.ExtraArgs, MaxExtraArgs); err != nil {
		return err
	}
	if _, err := c.ExtraArgs(); err != nil {
		return err
	}

	if q := c.Viewer.Quality; q != 0 && (q < MinQuality || q > MaxQuality) {
		return fmt.Errorf("%w: viewer.quality must be between %.1f and %.1f, got %.2f", ErrOutOfRange, MinQuality, MaxQuality, q)
	}
	if w := c.Viewer.ThumbnailWidth; w != 0 && (w < MinThumbnailWidth || w > MaxThumbnailWidth) {
		return fmt.Errorf("%w: viewer.thumbnailWidth must be between %d and %d, got %d", ErrOutOfRange, MinThumbnailWidth, MaxThumbnailWidth, w)
	}
	if s := c.Viewer.ZoomStep; s != 0 && (s < MinZoomStep || s > MaxZoomStep) {
		return fmt.Errorf("%w: viewer.zoomStep must be between %.2f and %.2f, got %.2f", ErrOutOfRange, MinZoomStep, MaxZoomStep, s)
	}

	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, error, or disabled)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", logging.FormatConsole, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: log.format %q (must be console or json)", ErrInvalidValue, c.Log.Format)
	}

	return nil
}

// Timeout parses converter.timeout. Empty means DefaultTimeout.
func (c *Config) Timeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Converter.Timeout)
	if raw == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: converter.timeout: %v", ErrInvalidValue, err)
	}
	if d <= 0 || d > MaxTimeout {
		return 0, fmt.Errorf("%w: converter.timeout must be between 0 and %s, got %s", ErrOutOfRange, MaxTimeout, d)
	}
	return d, nil
}

// ExtraArgs splits converter.extraArgs into argv words using shell quoting rules.
func (c *Config) ExtraArgs() ([]string, error) {
	if strings.TrimSpace(c.Converter.ExtraArgs) == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.Converter.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("%w: converter.extraArgs: %v", ErrInvalidValue, err)
	}
	return args, nil
}

// MaxAge returns the sweep threshold.
func (c *Config) MaxAge() time.Duration {
	days := c.Cache.MaxAgeDays
	if days <= 0 {
		days = DefaultMaxAgeDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// Parse decodes YAML strictly on top of DefaultConfig and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}

	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// SearchPaths lists the files LoadConfig tries for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDirName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// the current directory first, then ~/.config/go-slideview/.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
