package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	flag "github.com/spf13/pflag"

	slideview "github.com/alnah/go-slideview"
	"github.com/alnah/go-slideview/internal/fileutil"
	"github.com/alnah/go-slideview/internal/office"
)

// Doctor status values.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string        `json:"status"` // "ready", "warnings", "errors"
	Converter converterInfo `json:"converter"`
	Env       envInfo       `json:"environment"`
	Cache     cacheInfo     `json:"cache"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// converterInfo holds office tool detection results.
type converterInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Supported     bool   `json:"supported"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	Tool          string `json:"slideview_tool,omitempty"`
}

// cacheInfo holds cache directory check results.
type cacheInfo struct {
	Dir       string `json:"dir"`
	Writable  bool   `json:"writable"`
	Entries   int    `json:"entries"`
	TotalSize int64  `json:"total_size"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}

	s, err := loadSettings(&flags.common, env)
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}

	result := runDoctor(ctx, s.pipeline(env), env)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, p *slideview.Pipeline, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:        env.GOOS,
			Arch:      runtime.GOARCH,
			Supported: slideview.SupportedPlatform(env.GOOS),
			Tool:      env.Getenv("SLIDEVIEW_TOOL"),
		},
	}

	checkPlatform(result)
	checkConverter(ctx, p, result)
	checkEnvironment(env.Getenv, result)
	checkCache(p, result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkPlatform flags systems LibreOffice does not run on.
func checkPlatform(result *doctorResult) {
	if !result.Env.Supported {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Platform %s is not supported. Conversion needs Linux, macOS, Windows, or FreeBSD", result.Env.OS))
	}
}

// checkConverter probes for soffice the same way conversions do.
func checkConverter(ctx context.Context, p *slideview.Pipeline, result *doctorResult) {
	if !result.Env.Supported {
		return
	}

	tool, err := p.Probe(ctx)
	if err != nil {
		if errors.Is(err, office.ErrNotFound) {
			result.Errors = append(result.Errors,
				"LibreOffice not found. Install it or set SLIDEVIEW_TOOL / converter.tool")
			return
		}
		result.Errors = append(result.Errors, fmt.Sprintf("Converter probe failed: %v", err))
		return
	}

	result.Converter.Found = true
	result.Converter.Path = tool.Path
	result.Converter.Version = tool.Version
	if tool.Version == "" {
		result.Warnings = append(result.Warnings, "Converter reported no version")
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(getenv func(string) string, result *doctorResult) {
	// Detect container (multi-signal approach)
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	// Detect CI environments
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	// Headless conversions in containers usually lack fonts.
	if result.Env.Container && result.Converter.Found {
		result.Warnings = append(result.Warnings,
			"Container detected. Install fonts (e.g. fonts-dejavu, fonts-liberation) for faithful slides")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	// Explicit override (highest priority)
	if getenv("SLIDEVIEW_CONTAINER") == "1" {
		return true, "SLIDEVIEW_CONTAINER=1"
	}
	// Docker
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkCache verifies the cache directory can hold conversions.
func checkCache(p *slideview.Pipeline, result *doctorResult) {
	dir := p.CacheDir()
	result.Cache.Dir = dir

	if err := os.MkdirAll(dir, dirPermissions); err != nil || !fileutil.DirWritable(dir) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Cache directory not writable: %s", dir))
		return
	}
	result.Cache.Writable = true

	stats := p.Stats()
	result.Cache.Entries = stats.Count
	result.Cache.TotalSize = stats.TotalSize
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "slideview doctor")
	fmt.Fprintln(w)

	// Converter section
	fmt.Fprintln(w, "Converter")
	if r.Converter.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Converter.Path)
		if r.Converter.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Converter.Version)
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	// Environment section
	fmt.Fprintln(w, "Environment")
	if r.Env.Supported {
		fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	} else {
		fmt.Fprintf(w, "  [ERROR] Platform: %s/%s (unsupported)\n", r.Env.OS, r.Env.Arch)
	}
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	// Cache section
	fmt.Fprintln(w, "Cache")
	if r.Cache.Writable {
		fmt.Fprintf(w, "  [OK] Directory: %s\n", r.Cache.Dir)
		fmt.Fprintf(w, "  [OK] Entries: %s\n",
			describeStats(slideview.CacheStats{Count: r.Cache.Entries, TotalSize: r.Cache.TotalSize}))
	} else {
		fmt.Fprintf(w, "  [ERROR] Directory: %s (not writable)\n", r.Cache.Dir)
	}
	fmt.Fprintln(w)

	// Warnings
	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	// Errors
	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	// Final status
	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready to view presentations")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
