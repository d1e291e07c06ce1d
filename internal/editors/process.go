package editors

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ProcessResult captures everything known about one external command run.
type ProcessResult struct {
	// Attempted is false when the command could not be started at all.
	Attempted bool
	// ExitCode is valid only when HasExitCode is true.
	ExitCode    int
	HasExitCode bool
	// Err is the start, wait or timeout error, if any.
	Err      error
	TimedOut bool
	Output   string
	Elapsed  time.Duration
}

// Runner starts external commands.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) ProcessResult
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// maxOutput caps how much combined output is kept for the log.
const maxOutput = 4096

// Run starts name with args and waits at most timeout. A zero or negative
// timeout is replaced by one minute so no call can wait forever.
func (ExecRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) ProcessResult {
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 2 * time.Second

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return ProcessResult{Attempted: false, Err: err}
	}

	err := cmd.Wait()
	res := ProcessResult{
		Attempted: true,
		Err:       err,
		Elapsed:   time.Since(start),
		TimedOut:  errors.Is(ctx.Err(), context.DeadlineExceeded),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
		res.HasExitCode = res.ExitCode >= 0
	}

	output := out.String()
	if len(output) > maxOutput {
		output = output[:maxOutput]
	}
	res.Output = output
	return res
}
