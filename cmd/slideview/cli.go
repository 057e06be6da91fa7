package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-slideview/internal/fileutil"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage          = errors.New("invalid usage")
	ErrNoInput        = errors.New("no input specified")
	ErrInvalidPage    = errors.New("page out of range")
	ErrInvalidZoom    = errors.New("zoom out of range")
	ErrUnknownCommand = errors.New("unknown command")
	ErrOutputDir      = errors.New("output directory not writable")
)

// runMain runs the CLI and returns the process exit code.
// args includes the program name, as in os.Args.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error

	switch cmd {
	case "open":
		err = runOpenCmd(ctx, rest, env)
	case "view":
		err = runViewCmd(ctx, rest, env)
	case "cache":
		err = runCacheCmd(rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "completion":
		err = runCompletion(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "slideview %s\n", Version)
		return ExitSuccess
	case "help", "--help", "-h":
		runHelp(rest, env)
		return ExitSuccess
	default:
		// A bare presentation path is shorthand for "open <path>".
		if !strings.HasPrefix(cmd, "-") && fileutil.IsPresentation(cmd) {
			err = runOpenCmd(ctx, args[1:], env)
			break
		}
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		fmt.Fprintf(env.Stderr, "error: %v\n\n", err)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

// usageError marks flag parsing failures as usage errors.
func usageError(err error) error {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}
