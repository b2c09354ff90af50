package handlers

import (
	"context"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/dnedic/dc-deploy/internal/ansible"
	"github.com/dnedic/dc-deploy/internal/config"
	"github.com/dnedic/dc-deploy/internal/pipeline"
	"github.com/dnedic/dc-deploy/internal/probe"
	"github.com/dnedic/dc-deploy/internal/terraform"
	"github.com/dnedic/dc-deploy/internal/util/keygen"
	"github.com/dnedic/dc-deploy/internal/util/prerequisites"
)

// stubFactories replaces every factory variable with a mock that succeeds and
// restores the originals when the test ends. Individual tests override the
// pieces they care about after calling it.
func stubFactories(t *testing.T) *infraMock {
	t.Helper()

	origLoad := loadConfigFile
	origInfra := newInfrastructure
	origWaiter := newPortWaiter
	origFetcher := newPasswordFetcher
	origConfigurator := newConfigurator
	origIdentity := newIdentityAPI
	origCheckTools := checkTools
	origCheckAWS := checkAWSCredentials
	origConfirm := confirm
	origLoadKey := loadPrivateKey
	origEnsureVars := ensureVarsFile
	origPatch := patchInventory
	origKeyExists := keyExists
	origGenerate := generateKeyPair
	t.Cleanup(func() {
		loadConfigFile = origLoad
		newInfrastructure = origInfra
		newPortWaiter = origWaiter
		newPasswordFetcher = origFetcher
		newConfigurator = origConfigurator
		newIdentityAPI = origIdentity
		checkTools = origCheckTools
		checkAWSCredentials = origCheckAWS
		confirm = origConfirm
		loadPrivateKey = origLoadKey
		ensureVarsFile = origEnsureVars
		patchInventory = origPatch
		keyExists = origKeyExists
		generateKeyPair = origGenerate
	})

	infra := &infraMock{}
	newInfrastructure = func(_ *config.Request) pipeline.Infrastructure { return infra }
	newPortWaiter = func() pipeline.PortWaiter { return &waiterMock{} }
	newPasswordFetcher = func(_ context.Context, _ string) (pipeline.PasswordFetcher, error) {
		return &fetcherMock{password: "Xy7!deploy"}, nil
	}
	newConfigurator = func(_ *config.Request) pipeline.Configurator { return &configuratorMock{} }
	newIdentityAPI = func(_ context.Context, _ string) (prerequisites.CallerIdentityAPI, error) {
		return nil, nil
	}
	checkTools = func(_ []prerequisites.Tool) *prerequisites.CheckResults {
		return &prerequisites.CheckResults{}
	}
	checkAWSCredentials = func(_ context.Context, _ prerequisites.CallerIdentityAPI) error { return nil }
	confirm = func(_ string, _ bool) (bool, error) { return true, nil }
	loadPrivateKey = func(_ string) (*rsa.PrivateKey, error) { return &rsa.PrivateKey{}, nil }
	ensureVarsFile = func(_ string, _ terraform.VarOverrides) (bool, error) { return false, nil }
	patchInventory = func(_, _, _ string) error { return nil }
	keyExists = func(_ string) bool { return true }
	generateKeyPair = func(_ int) (*keygen.KeyPair, error) {
		return &keygen.KeyPair{PrivateKey: []byte("private"), PublicKey: []byte("public")}, nil
	}

	return infra
}

type infraMock struct {
	applyErr   error
	destroyErr error

	applyCalls int
	destroyed  bool
}

func (m *infraMock) Init(_ context.Context) error { return nil }
func (m *infraMock) Plan(_ context.Context) error { return nil }
func (m *infraMock) Apply(_ context.Context) error {
	m.applyCalls++
	return m.applyErr
}

func (m *infraMock) Destroy(_ context.Context) error {
	m.destroyed = true
	return m.destroyErr
}

func (m *infraMock) Outputs(_ context.Context) (terraform.Outputs, error) {
	return terraform.Outputs{
		InstanceID: "i-0abc123",
		PublicIP:   "203.0.113.10",
		PrivateIP:  "10.0.1.10",
	}, nil
}

type waiterMock struct{}

func (m *waiterMock) WaitForPort(_ context.Context, _ string, _, _ int, _ time.Duration) (probe.PollResult, error) {
	return probe.PollResult{Ready: true, Attempts: 1}, nil
}

type fetcherMock struct {
	password string
	err      error
}

func (m *fetcherMock) FetchPassword(_ context.Context, _ string, _ *rsa.PrivateKey, _ int, _ time.Duration) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.password, nil
}

type configuratorMock struct {
	err error
}

func (m *configuratorMock) Run(_ context.Context, _ []string, _ int, _ time.Duration) (ansible.RunResult, error) {
	if m.err != nil {
		return ansible.RunResult{Attempts: 1, ExitCode: 2}, m.err
	}
	return ansible.RunResult{Succeeded: true, Attempts: 1}, nil
}
