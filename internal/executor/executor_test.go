package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_CapturesStdout(t *testing.T) {
	t.Parallel()
	local := NewLocal()

	result, err := local.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello", strings.TrimSpace(result.Stdout))
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	t.Parallel()
	local := NewLocal()

	result, err := local.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo oops >&2; exit 3"},
	})

	require.NoError(t, err, "ran-and-failed must be reported via ExitCode, not error")
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops", strings.TrimSpace(result.Stderr))
}

func TestRun_MissingBinaryIsExecutionError(t *testing.T) {
	t.Parallel()
	local := NewLocal()

	_, err := local.Run(context.Background(), Command{
		Name: "definitely-not-a-real-binary-dc-deploy",
	})

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "definitely-not-a-real-binary-dc-deploy", execErr.Command)
}

func TestRun_TimeoutTerminatesSubprocess(t *testing.T) {
	t.Parallel()
	local := NewLocal()

	start := time.Now()
	_, err := local.Run(context.Background(), Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 30"},
		Timeout: 100 * time.Millisecond,
	})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 100*time.Millisecond, timeoutErr.Timeout)
	assert.Less(t, time.Since(start), 15*time.Second)
}

func TestRun_CallerCancellationPropagates(t *testing.T) {
	t.Parallel()
	local := NewLocal()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := local.Run(ctx, Command{
		Name: "sh",
		Args: []string{"-c", "sleep 30"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRun_WorkingDirAndEnv(t *testing.T) {
	t.Parallel()
	local := NewLocal()
	dir := t.TempDir()

	result, err := local.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "pwd; printf '%s' \"$DC_DEPLOY_TEST\""},
		Dir:  dir,
		Env:  []string{"DC_DEPLOY_TEST=roles-path"},
	})

	require.NoError(t, err)
	assert.Contains(t, result.Stdout, dir)
	assert.Contains(t, result.Stdout, "roles-path")
}

func TestToolFailure_Error(t *testing.T) {
	t.Parallel()
	withStderr := &ToolFailure{Tool: "terraform", ExitCode: 1, Stderr: "no credentials"}
	assert.Contains(t, withStderr.Error(), "terraform")
	assert.Contains(t, withStderr.Error(), "no credentials")

	bare := &ToolFailure{Tool: "ansible-playbook", ExitCode: 2}
	assert.Contains(t, bare.Error(), "code 2")
}
