package artisan

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// TimeoutExitCode is reported when a command is killed for exceeding its
// timeout, matching the convention of timeout(1).
const TimeoutExitCode = 124

// Result is the outcome of one sub-process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
	// Err is set when the process could not be started at all.
	Err error
}

// Runner starts a process in dir and waits for it.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) Result
}

// CommandRunner runs real processes through os/exec.
type CommandRunner struct {
	// Timeout bounds each process. Zero means no limit beyond ctx.
	Timeout time.Duration
}

// Run executes the command and captures stdout and stderr.
// The process is never given a shell; name must be an executable on PATH
// or a path.
func (r CommandRunner) Run(ctx context.Context, dir, name string, args ...string) Result {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // the PHP binary is chosen by the user
	cmd.Dir = dir

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: -1, Err: err}
	}
	waitErr := cmd.Wait()

	res := Result{
		Stdout:   outBuf.String(),
		Stderr:   errBuf.String(),
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
	}

	var exitErr *exec.ExitError
	switch {
	case res.TimedOut:
		res.ExitCode = TimeoutExitCode
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case waitErr != nil:
		res.ExitCode = 1
		res.Err = waitErr
	default:
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	return res
}
