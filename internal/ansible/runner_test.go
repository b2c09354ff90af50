package ansible

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnedic/dc-deploy/internal/executor"
)

// fakeRunner replays a scripted sequence of exit codes.
type fakeRunner struct {
	exitCodes []int
	errs      []error
	commands  []executor.Command
}

func (f *fakeRunner) Run(_ context.Context, cmd executor.Command) (executor.Result, error) {
	i := len(f.commands)
	f.commands = append(f.commands, cmd)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	code := 0
	if i < len(f.exitCodes) {
		code = f.exitCodes[i]
	}
	return executor.Result{ExitCode: code}, err
}

func TestRun_SuccessFirstAttempt(t *testing.T) {
	t.Parallel()
	exec := &fakeRunner{exitCodes: []int{0}}
	r := New("ansible", exec)

	result, err := r.Run(context.Background(), nil, 2, time.Millisecond)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, 1, result.Attempts)
	assert.Len(t, exec.commands, 1)
}

func TestRun_FailFailSuccess(t *testing.T) {
	t.Parallel()
	exec := &fakeRunner{exitCodes: []int{2, 2, 0}}
	r := New("ansible", exec)

	result, err := r.Run(context.Background(), nil, 2, time.Millisecond)

	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, 3, result.Attempts)
	assert.Len(t, exec.commands, 3, "exactly three invocations: fail, fail, success")
}

func TestRun_AllAttemptsFail(t *testing.T) {
	t.Parallel()
	exec := &fakeRunner{exitCodes: []int{2, 2, 2}}
	r := New("ansible", exec)

	result, err := r.Run(context.Background(), nil, 2, time.Millisecond)

	require.Error(t, err)
	assert.False(t, result.Succeeded)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 2, result.ExitCode)
	assert.Len(t, exec.commands, 3)

	var failure *executor.ToolFailure
	assert.True(t, errors.As(err, &failure))
}

func TestRun_StartFailureNotRetried(t *testing.T) {
	t.Parallel()
	startErr := &executor.ExecutionError{Command: "ansible-playbook", Err: errors.New("not found")}
	exec := &fakeRunner{errs: []error{startErr}}
	r := New("ansible", exec)

	result, err := r.Run(context.Background(), nil, 2, time.Millisecond)

	require.Error(t, err)
	assert.False(t, result.Succeeded)
	assert.Len(t, exec.commands, 1, "could-not-run is fatal, not retried")

	var execErr *executor.ExecutionError
	assert.True(t, errors.As(err, &execErr))
}

func TestRun_CommandShape(t *testing.T) {
	t.Parallel()
	exec := &fakeRunner{exitCodes: []int{0}}
	r := New("ansible", exec)

	_, err := r.Run(context.Background(), []string{"iis", "hardening"}, 0, time.Millisecond)
	require.NoError(t, err)

	require.Len(t, exec.commands, 1)
	cmd := exec.commands[0]
	assert.Equal(t, "ansible-playbook", cmd.Name)
	assert.Equal(t, "ansible", cmd.Dir)
	assert.Equal(t, []string{"-i", "inventory/hosts.yml", "playbooks/site.yml", "-v", "--tags", "iis,hardening"}, cmd.Args)
	require.Len(t, cmd.Env, 1)
	assert.Contains(t, cmd.Env[0], "ANSIBLE_ROLES_PATH=")
	assert.Contains(t, cmd.Env[0], "roles")
}

func TestRun_ZeroRetriesMeansSingleAttempt(t *testing.T) {
	t.Parallel()
	exec := &fakeRunner{exitCodes: []int{1}}
	r := New("ansible", exec)

	result, err := r.Run(context.Background(), nil, 0, time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.Len(t, exec.commands, 1)
}
