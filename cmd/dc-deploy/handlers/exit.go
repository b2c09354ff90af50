package handlers

import (
	"errors"

	"github.com/dnedic/dc-deploy/internal/pipeline"
)

// Exit codes distinguish the failure classes an operator or wrapper script
// cares about. Anything not tied to a pipeline stage exits 1.
const (
	ExitOK                    = 0
	ExitFailure               = 1
	ExitProvisionFailed       = 2
	ExitNetworkNotReady       = 3
	ExitCredentialUnavailable = 4
	ExitConfigureFailed       = 5
)

// RunError wraps a pipeline failure with the stage it occurred in, so the
// process exit code can tell the failure classes apart.
type RunError struct {
	Stage pipeline.Stage
	Err   error
}

func (e *RunError) Error() string {
	return e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ExitCode maps a handler error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		return ExitFailure
	}

	switch runErr.Stage {
	case pipeline.StageProvision, pipeline.StageDestroy:
		return ExitProvisionFailed
	case pipeline.StageAwaitNetwork:
		return ExitNetworkNotReady
	case pipeline.StageRetrieveCredential:
		return ExitCredentialUnavailable
	case pipeline.StageConfigure:
		return ExitConfigureFailed
	default:
		return ExitFailure
	}
}
