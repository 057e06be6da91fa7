package main

import (
	"fmt"

	slideview "github.com/alnah/go-slideview"
)

// runCacheCmd reports on or cleans the conversion cache.
// Cache maintenance never needs the converter.
func runCacheCmd(args []string, env *Environment) error {
	flags, positional, err := parseCacheFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	action := "stats"
	switch len(positional) {
	case 0:
	case 1:
		action = positional[0]
	default:
		return fmt.Errorf("%w: cache takes one action, got %d", ErrUsage, len(positional))
	}
	if flags.days < 0 {
		return fmt.Errorf("%w: --days must not be negative", ErrUsage)
	}

	s, err := loadSettings(&flags.common, env)
	if err != nil {
		return err
	}
	p := s.pipeline(env)
	out := newPrinter(env, flags.common.quiet)

	switch action {
	case "stats":
		stats := p.Stats()
		out.infof("%s: %s", p.CacheDir(), describeStats(stats))
	case "sweep":
		days := flags.days
		if days == 0 {
			days = s.cfg.Cache.MaxAgeDays
		}
		removed := p.SweepOlderThan(days)
		out.infof("Removed %s older than %d days", describeStats(removed), effectiveDays(days))
	case "clear":
		removed := p.ClearAll()
		out.infof("Removed %s", describeStats(removed))
	default:
		return fmt.Errorf("%w: cache %s (want stats, sweep, or clear)", ErrUnknownCommand, action)
	}
	return nil
}

// effectiveDays mirrors the pipeline default for non-positive thresholds.
func effectiveDays(days int) int {
	if days <= 0 {
		return slideview.DefaultMaxAgeDays
	}
	return days
}

// describeStats renders "3 entries (1.2 MiB)".
func describeStats(s slideview.CacheStats) string {
	noun := "entries"
	if s.Count == 1 {
		noun = "entry"
	}
	return fmt.Sprintf("%d %s (%s)", s.Count, noun, formatBytes(s.TotalSize))
}

// formatBytes renders n with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
