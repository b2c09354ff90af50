// Package ansible drives the configuration-management run against the
// patched inventory.
//
// A full site playbook against a freshly booted domain controller routinely
// trips over services that are not yet ready (WinRM hiccups mid-promotion,
// post-reboot races), so the run is retried a bounded number of times with a
// fixed backoff. The failures being absorbed are boot races, not load, which
// is why the backoff does not grow.
package ansible

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dnedic/dc-deploy/internal/executor"
	"github.com/dnedic/dc-deploy/internal/util/retry"
)

const (
	// DefaultMaxRetries extra attempts after the first failure, at
	// DefaultBackoff apart.
	DefaultMaxRetries = 2
	DefaultBackoff    = 30 * time.Second
)

// RunResult reports the aggregate outcome of a playbook run.
type RunResult struct {
	// Succeeded is true if any attempt exited zero.
	Succeeded bool

	// Attempts is the number of playbook invocations actually made.
	Attempts int

	// ExitCode is the final attempt's exit code.
	ExitCode int
}

// Logger receives progress output.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Runner invokes ansible-playbook with bounded retries.
type Runner struct {
	// Dir is the ansible working directory (contains inventory/, playbooks/,
	// roles/).
	Dir string

	// Inventory and Playbook are paths relative to Dir.
	Inventory string
	Playbook  string

	// Exec executes the subprocess.
	Exec executor.Runner

	// Log receives progress output. Nil disables it.
	Log Logger
}

// New creates a playbook runner with the conventional layout under dir.
func New(dir string, exec executor.Runner) *Runner {
	return &Runner{
		Dir:       dir,
		Inventory: filepath.Join("inventory", "hosts.yml"),
		Playbook:  filepath.Join("playbooks", "site.yml"),
		Exec:      exec,
	}
}

// Run executes the playbook, retrying on non-zero exit up to maxRetries
// additional times with a fixed backoff between attempts. A successful
// attempt short-circuits the remaining budget. A subprocess that cannot be
// started at all is fatal immediately; only ran-and-failed is retried.
func (r *Runner) Run(ctx context.Context, tags []string, maxRetries int, backoff time.Duration) (RunResult, error) {
	result := RunResult{}
	maxAttempts := maxRetries + 1

	err := retry.WithFixedBackoff(ctx, func(attempt int) error {
		result.Attempts = attempt
		if attempt > 1 {
			r.logf("Retrying playbook (attempt %d/%d)...", attempt, maxAttempts)
		}

		execResult, err := r.Exec.Run(ctx, executor.Command{
			Name:   "ansible-playbook",
			Args:   r.args(tags),
			Dir:    r.Dir,
			Env:    []string{"ANSIBLE_ROLES_PATH=" + r.rolesPath()},
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		})
		if err != nil {
			// Could-not-run and cancellation are not cured by waiting.
			return retry.Fatal(err)
		}

		result.ExitCode = execResult.ExitCode
		if execResult.ExitCode != 0 {
			r.logf("Playbook failed with exit code %d", execResult.ExitCode)
			return &executor.ToolFailure{
				Tool:     "ansible-playbook",
				ExitCode: execResult.ExitCode,
			}
		}
		return nil
	}, retry.WithMaxAttempts(maxAttempts), retry.WithInterval(backoff))

	if err == nil {
		result.Succeeded = true
		return result, nil
	}
	if errors.Is(err, retry.ErrExhausted) {
		return result, fmt.Errorf("playbook failed after %d attempts: %w",
			result.Attempts, &executor.ToolFailure{Tool: "ansible-playbook", ExitCode: result.ExitCode})
	}
	return result, err
}

// args builds the playbook invocation, optionally filtered by tag.
func (r *Runner) args(tags []string) []string {
	args := []string{"-i", r.Inventory, r.Playbook, "-v"}
	if len(tags) > 0 {
		args = append(args, "--tags", strings.Join(tags, ","))
	}
	return args
}

// rolesPath pins the roles directory for the child process only; the
// orchestrator's own environment is never mutated.
func (r *Runner) rolesPath() string {
	abs, err := filepath.Abs(filepath.Join(r.Dir, "roles"))
	if err != nil {
		return filepath.Join(r.Dir, "roles")
	}
	return abs
}

func (r *Runner) logf(format string, v ...interface{}) {
	if r.Log != nil {
		r.Log.Printf(format, v...)
	}
}
