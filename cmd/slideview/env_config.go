package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alnah/go-slideview/internal/config"
)

// envPrefix marks the variables this CLI reads.
const envPrefix = "SLIDEVIEW_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // SLIDEVIEW_CONFIG: config file name or path
	CacheDir   string // SLIDEVIEW_CACHE_DIR: cache directory
	Timeout    string // SLIDEVIEW_TIMEOUT: per-strategy converter timeout
	Tool       string // SLIDEVIEW_TOOL: converter executable
	LogLevel   string // SLIDEVIEW_LOG_LEVEL: debug, info, warn, error, disabled
}

// knownEnvVars lists valid SLIDEVIEW_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"SLIDEVIEW_CONFIG":    true,
	"SLIDEVIEW_CACHE_DIR": true,
	"SLIDEVIEW_TIMEOUT":   true,
	"SLIDEVIEW_TOOL":      true,
	"SLIDEVIEW_LOG_LEVEL": true,
	"SLIDEVIEW_CONTAINER": true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig(getenv func(string) string) *envConfig {
	return &envConfig{
		ConfigPath: strings.TrimSpace(getenv("SLIDEVIEW_CONFIG")),
		CacheDir:   strings.TrimSpace(getenv("SLIDEVIEW_CACHE_DIR")),
		Timeout:    strings.TrimSpace(getenv("SLIDEVIEW_TIMEOUT")),
		Tool:       strings.TrimSpace(getenv("SLIDEVIEW_TOOL")),
		LogLevel:   strings.TrimSpace(getenv("SLIDEVIEW_LOG_LEVEL")),
	}
}

// warnUnknownEnvVars prints warnings for unrecognized SLIDEVIEW_* variables.
// Helps catch typos like SLIDEVIEW_CACHEDIR instead of SLIDEVIEW_CACHE_DIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the config file.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via applyFlags). Values are validated with
// the rest of the config.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.CacheDir != "" {
		cfg.Cache.Dir = env.CacheDir
	}
	if env.Timeout != "" {
		cfg.Converter.Timeout = env.Timeout
	}
	if env.Tool != "" {
		cfg.Converter.Tool = env.Tool
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
}

// environ is swapped in tests.
var environ = os.Environ
