package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config   string
	cacheDir string
	timeout  string
	tool     string
	quiet    bool
	verbose  bool
}

// openFlags holds flags for the open command.
type openFlags struct {
	common commonFlags
	output string
	page   int
	zoom   float64
}

// viewFlags holds flags for the view command.
type viewFlags struct {
	common commonFlags
	output string
	watch  bool
}

// cacheFlags holds flags for the cache command.
type cacheFlags struct {
	common commonFlags
	days   int
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "cache directory")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "converter timeout per strategy (e.g., 90s, 3m)")
	fs.StringVar(&f.tool, "tool", "", "converter executable (soffice)")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show diagnostic logs")
}

// newFlagSet creates a FlagSet that reports errors instead of exiting.
func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// openFlagSet registers open command flags into f.
func openFlagSet(f *openFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet("open", printOpenUsage, stderr)
	fs.StringVarP(&f.output, "output", "o", ".", "directory for page.png and thumbnails")
	fs.IntVar(&f.page, "page", 1, "page to show (1-based)")
	fs.Float64Var(&f.zoom, "zoom", 1, "zoom factor (0.5-3.0)")
	addCommonFlags(fs, &f.common)
	return fs
}

// viewFlagSet registers view command flags into f.
func viewFlagSet(f *viewFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet("view", printViewUsage, stderr)
	fs.StringVarP(&f.output, "output", "o", ".", "directory for page.png and thumbnails")
	fs.BoolVarP(&f.watch, "watch", "w", false, "reload when the source file changes")
	addCommonFlags(fs, &f.common)
	return fs
}

// cacheFlagSet registers cache command flags into f.
func cacheFlagSet(f *cacheFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet("cache", printCacheUsage, stderr)
	fs.IntVar(&f.days, "days", 0, "sweep threshold in days (0 = config or 7)")
	addCommonFlags(fs, &f.common)
	return fs
}

// doctorFlagSet registers doctor command flags into f.
func doctorFlagSet(f *doctorFlags, stderr io.Writer) *flag.FlagSet {
	fs := newFlagSet("doctor", printDoctorUsage, stderr)
	fs.BoolVar(&f.json, "json", false, "print results as JSON")
	addCommonFlags(fs, &f.common)
	return fs
}

// parseOpenFlags parses open command flags and returns positional args.
func parseOpenFlags(args []string, stderr io.Writer) (*openFlags, []string, error) {
	f := &openFlags{}
	fs := openFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseViewFlags parses view command flags and returns positional args.
func parseViewFlags(args []string, stderr io.Writer) (*viewFlags, []string, error) {
	f := &viewFlags{}
	fs := viewFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseCacheFlags parses cache command flags and returns positional args.
func parseCacheFlags(args []string, stderr io.Writer) (*cacheFlags, []string, error) {
	f := &cacheFlags{}
	fs := cacheFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, stderr io.Writer) (*doctorFlags, error) {
	f := &doctorFlags{}
	fs := doctorFlagSet(f, stderr)
	if err := fs.Parse(args); err != nil {
		return nil, usageError(err)
	}
	return f, nil
}
