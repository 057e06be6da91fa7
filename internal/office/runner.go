// Package office drives a LibreOffice-compatible converter running headless.
//
// Commands are always executed as an argument vector, never through a shell,
// so file names cannot inject options or shell syntax.
package office

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/alnah/go-slideview/internal/process"
)

// ErrTimeout is returned when a command exceeds its RunOptions.Timeout.
var ErrTimeout = errors.New("command timed out")

// waitDelay bounds how long Run waits for output pipes after a kill.
const waitDelay = 5 * time.Second

// RunOptions bounds a single command execution.
type RunOptions struct {
	Timeout time.Duration // zero means no timeout beyond ctx
	Dir     string        // working directory, empty = current
}

// Output holds what a finished command produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int // -1 when the process never started or was killed
}

// Runner abstracts command execution to enable testing without real subprocesses.
type Runner interface {
	Run(ctx context.Context, name string, args []string, opts RunOptions) (Output, error)
}

// ExecRunner implements Runner using os/exec.
// On timeout the whole process group is killed, not just the direct child.
type ExecRunner struct{}

var _ Runner = ExecRunner{}

// Run executes name with args and waits for it to finish.
func (ExecRunner) Run(ctx context.Context, name string, args []string, opts RunOptions) (Output, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- argv vector, no shell
	cmd.Dir = opts.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	process.Isolate(cmd)
	cmd.Cancel = func() error {
		return process.KillGroup(cmd.Process.Pid)
	}
	cmd.WaitDelay = waitDelay

	err := cmd.Run()

	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && opts.Timeout > 0 {
			return out, fmt.Errorf("%w after %s: %s", ErrTimeout, opts.Timeout, filepath.Base(name))
		}
		return out, ctxErr
	}
	if err != nil {
		return out, fmt.Errorf("running %s: %w", filepath.Base(name), err)
	}
	return out, nil
}
