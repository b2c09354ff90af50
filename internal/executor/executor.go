// Package executor runs external provisioning and configuration tools as
// subprocesses.
//
// The executor distinguishes three outcomes that callers must treat
// differently: the process could not be started at all ([ExecutionError]),
// the process ran but reported failure (non-zero exit code on the [Result],
// not an error), and the process was forcibly terminated because it exceeded
// its deadline ([TimeoutError]). Retry policy is a caller concern; nothing
// here retries.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Command describes a single subprocess invocation.
type Command struct {
	// Name is the binary to run, resolved via PATH.
	Name string

	// Args are the command-line arguments, excluding the binary name.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env holds extra environment entries ("KEY=value") appended to the
	// parent environment. The parent environment is always inherited.
	Env []string

	// Timeout bounds the subprocess runtime. Zero means no deadline beyond
	// the caller's context.
	Timeout time.Duration

	// Stdout and Stderr, when set, receive the subprocess output as it is
	// produced in addition to the captured copy on the Result. Used to
	// stream terraform and ansible output to the operator.
	Stdout io.Writer
	Stderr io.Writer
}

// Result holds the outcome of a subprocess that was successfully started.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// ExecutionError indicates the subprocess could not be started at all
// (binary missing, permission denied, bad working directory).
type ExecutionError struct {
	Command string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError indicates the subprocess exceeded its deadline and was
// forcibly terminated.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %v", e.Command, e.Timeout)
}

// ToolFailure indicates an external tool ran to completion but reported
// failure via a non-zero exit code. The executor itself never returns this;
// callers build it from the Result when a non-zero exit is fatal for them.
type ToolFailure struct {
	Tool     string
	ExitCode int
	Stderr   string
}

func (e *ToolFailure) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.ExitCode)
}

// Runner abstracts subprocess execution for testing.
// Implemented by [Local].
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Local runs commands on the local machine.
type Local struct{}

// NewLocal creates a local subprocess runner.
func NewLocal() *Local {
	return &Local{}
}

// Run executes the command and waits for it to finish.
//
// An interrupt on ctx is forwarded to the subprocess so a cancelled run never
// leaves an orphan; if the subprocess ignores the signal it is killed after a
// grace period.
func (l *Local) Run(ctx context.Context, cmd Command) (Result, error) {
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	// #nosec G204 - command names and arguments come from our own tool
	// wrappers, not from untrusted input
	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdout != nil {
		c.Stdout = io.MultiWriter(&stdout, cmd.Stdout)
	}
	if cmd.Stderr != nil {
		c.Stderr = io.MultiWriter(&stderr, cmd.Stderr)
	}

	// Forward cancellation as SIGINT first so the tool can clean up its own
	// child processes; WaitDelay escalates to SIGKILL if it lingers.
	c.Cancel = func() error {
		return c.Process.Signal(os.Interrupt)
	}
	c.WaitDelay = 10 * time.Second

	start := time.Now()
	err := c.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	// Deadline on the run context (not the caller's) means our timeout fired.
	if cmd.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return result, &TimeoutError{Command: cmd.Name, Timeout: cmd.Timeout}
	}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}

	return result, &ExecutionError{Command: cmd.Name, Err: err}
}
