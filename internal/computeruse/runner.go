package computeruse

import (
	"bytes"
	"context"
	"errors"
	osexec "os/exec"
	"time"
)

// DefaultProcessTimeout bounds how long a helper may run before it is killed.
const DefaultProcessTimeout = 30 * time.Second

// Output holds the captured streams of a completed helper invocation.
type Output struct {
	Stdout string
	Stderr string
}

// Runner runs an external command to completion.
type Runner interface {
	Run(ctx context.Context, path string, args []string) (Output, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, path string, args []string) (Output, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, path string, args []string) (Output, error) {
	return f(ctx, path, args)
}

// ExecRunner spawns processes with os/exec.
type ExecRunner struct {
	// Timeout bounds each invocation; zero means wait indefinitely.
	Timeout time.Duration
}

// NewExecRunner creates a runner with the given per-invocation timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run spawns path with args and waits for it. A non-zero exit yields
// ToolNonZeroExit carrying stderr followed by stdout; a failure to start
// yields ToolSpawnFailure; an overrun or cancellation kills the process and
// yields ToolTimeout.
func (r *ExecRunner) Run(ctx context.Context, path string, args []string) (Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, path, args...)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Output{}, wrapError(KindToolSpawnFailure, err, "failed to run %q: %v", path, err)
	}

	err := cmd.Wait()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) && r.Timeout > 0 {
			return out, wrapError(KindToolTimeout, ctxErr, "command %q timed out after %s", path, r.Timeout)
		}
		return out, wrapError(KindToolTimeout, ctxErr, "command %q did not finish: %v", path, ctxErr)
	}

	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		return out, wrapError(KindToolNonZeroExit, err, "command %q failed: %s%s", path, out.Stderr, out.Stdout)
	}
	return out, wrapError(KindToolSpawnFailure, err, "failed to run %q: %v", path, err)
}
