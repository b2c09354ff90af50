package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dnedic/dc-deploy/internal/pipeline"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil error", err: nil, want: ExitOK},
		{name: "plain error", err: errors.New("boom"), want: ExitFailure},
		{name: "provision", err: &RunError{Stage: pipeline.StageProvision, Err: errors.New("boom")}, want: ExitProvisionFailed},
		{name: "destroy", err: &RunError{Stage: pipeline.StageDestroy, Err: errors.New("boom")}, want: ExitProvisionFailed},
		{name: "network", err: &RunError{Stage: pipeline.StageAwaitNetwork, Err: errors.New("boom")}, want: ExitNetworkNotReady},
		{name: "credential", err: &RunError{Stage: pipeline.StageRetrieveCredential, Err: errors.New("boom")}, want: ExitCredentialUnavailable},
		{name: "configure", err: &RunError{Stage: pipeline.StageConfigure, Err: errors.New("boom")}, want: ExitConfigureFailed},
		{name: "patch inventory", err: &RunError{Stage: pipeline.StagePatchInventory, Err: errors.New("boom")}, want: ExitFailure},
		{name: "wrapped run error", err: fmt.Errorf("deploy: %w", &RunError{Stage: pipeline.StageConfigure, Err: errors.New("boom")}), want: ExitConfigureFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestRunErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &RunError{Stage: pipeline.StageProvision, Err: cause}
	assert.Equal(t, "boom", err.Error())
	assert.ErrorIs(t, err, cause)
}
