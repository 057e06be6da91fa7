package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slideview <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  open        Convert a presentation and render one page to PNG")
	fmt.Fprintln(w, "  view        Interactive viewer driven by commands on stdin")
	fmt.Fprintln(w, "  cache       Show, sweep, or clear the conversion cache")
	fmt.Fprintln(w, "  doctor      Check the converter and system setup")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'slideview help <command>' for details on a specific command.")
}

// printCommonFlags prints the flags every command accepts.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Settings:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --cache-dir <dir>     Cache directory (default: $TMPDIR/slideview-cache)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Converter timeout per strategy (default: 90s)")
	fmt.Fprintln(w, "      --tool <path>         Converter executable (default: soffice on PATH)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show diagnostic logs")
}

// printOpenUsage prints usage for the open command.
func printOpenUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slideview open <presentation> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert a .pptx or .ppt file to PDF (cached) and render a page.")
	fmt.Fprintln(w, "Writes page.png and thumb-NNN.png into the output directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "View:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: .)")
	fmt.Fprintln(w, "      --page <n>            Page to render, 1-based (default: 1)")
	fmt.Fprintln(w, "      --zoom <f>            Zoom factor 0.5-3.0 (default: 1)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printViewUsage prints usage for the view command.
func printViewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slideview view <presentation> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Open a presentation and read commands from stdin, one per line.")
	fmt.Fprintln(w, "page.png is rewritten after every change.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  down, ArrowDown           Next page")
	fmt.Fprintln(w, "  up, ArrowUp               Previous page")
	fmt.Fprintln(w, "  +, =                      Zoom in")
	fmt.Fprintln(w, "  -, _                      Zoom out")
	fmt.Fprintln(w, "  goto <n>                  Go to page n (1-based)")
	fmt.Fprintln(w, "  thumb <n>                 Select thumbnail n")
	fmt.Fprintln(w, "  reload                    Convert again if the file changed")
	fmt.Fprintln(w, "  status                    Print the current state")
	fmt.Fprintln(w, "  quit                      Close the viewer")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "View:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: .)")
	fmt.Fprintln(w, "  -w, --watch               Reload when the source file changes")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printCacheUsage prints usage for the cache command.
func printCacheUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slideview cache <stats|sweep|clear> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Manage converted PDFs.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  stats                     Show entry count and total size")
	fmt.Fprintln(w, "  sweep                     Delete entries older than --days")
	fmt.Fprintln(w, "  clear                     Delete every entry")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sweep:")
	fmt.Fprintln(w, "      --days <n>            Age threshold in days (default: cache.maxAgeDays or 7)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: slideview doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the converter, platform, and cache directory.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print results as JSON")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "open":
		printOpenUsage(env.Stdout)
	case "view":
		printViewUsage(env.Stdout)
	case "cache":
		printCacheUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: slideview version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: slideview help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
