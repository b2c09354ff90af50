// Package pipeline sequences infrastructure provisioning and post-boot
// configuration into named stages with a defined failure-propagation
// contract.
//
// A run is strictly sequential: each stage's input is the previous stage's
// output, so there is no fan-out. The first stage failure halts the run and
// marks every remaining stage skipped; no stage runs twice within one
// invocation (the bounded retry inside Configure is internal to that stage).
// Re-invoking after a failure re-attempts from the failure point because
// every stage converges: Terraform reconciles existing infrastructure,
// probing an already-open port succeeds immediately, and the inventory patch
// is a pure rewrite.
package pipeline

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/dnedic/dc-deploy/internal/ansible"
	"github.com/dnedic/dc-deploy/internal/config"
	"github.com/dnedic/dc-deploy/internal/probe"
	"github.com/dnedic/dc-deploy/internal/terraform"
)

// ErrPlanRejected indicates the operator declined the saved plan. It is a
// deliberate stop, not an infrastructure failure; callers should not map it
// to a failure exit code.
var ErrPlanRejected = errors.New("plan rejected by operator")

// NotReadyError indicates the management port never accepted a connection
// within the attempt budget.
type NotReadyError struct {
	Address  string
	Attempts int
	Budget   time.Duration
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s not reachable after %d attempts (%v)", e.Address, e.Attempts, e.Budget)
}

// Infrastructure drives the provisioning tool.
// Implemented by terraform.CLI.
type Infrastructure interface {
	Init(ctx context.Context) error
	Plan(ctx context.Context) error
	Apply(ctx context.Context) error
	Destroy(ctx context.Context) error
	Outputs(ctx context.Context) (terraform.Outputs, error)
}

// PortWaiter polls the management endpoint for readiness.
// Implemented by probe.Prober.
type PortWaiter interface {
	WaitForPort(ctx context.Context, host string, port int, maxAttempts int, interval time.Duration) (probe.PollResult, error)
}

// PasswordFetcher retrieves and decrypts the one-time credential.
// Implemented by credentials.Retriever.
type PasswordFetcher interface {
	FetchPassword(ctx context.Context, instanceID string, privateKey *rsa.PrivateKey, maxAttempts int, interval time.Duration) (string, error)
}

// Configurator runs the configuration-management tool.
// Implemented by ansible.Runner.
type Configurator interface {
	Run(ctx context.Context, tags []string, maxRetries int, backoff time.Duration) (ansible.RunResult, error)
}

// Logger receives progress output.
type Logger interface {
	Printf(format string, v ...interface{})
}

// State holds the results shared between stages. It is progressively
// populated as stages complete.
type State struct {
	InstanceID string
	PublicIP   string
	PrivateIP  string

	// AdminPassword is the decrypted one-time credential. It is dropped
	// (zeroed) by ClearCredential once the access summary no longer needs
	// it and must never be logged or persisted outside the inventory.
	AdminPassword string

	ProbeResult     probe.PollResult
	ConfigureResult ansible.RunResult
}

// ClearCredential drops the plaintext credential from memory.
func (s *State) ClearCredential() {
	s.AdminPassword = ""
}

// Pipeline wires the stage collaborators together for one run.
type Pipeline struct {
	Config *config.Request

	Infra       Infrastructure
	Prober      PortWaiter
	Credentials PasswordFetcher
	Configure   Configurator

	// PatchInventory merges address and credential into the inventory
	// document. Implemented by inventory.PatchFile.
	PatchInventory func(path, address, credential string) error

	// ApproveApply, when set, is consulted between plan and apply. A false
	// answer stops the run with ErrPlanRejected. Nil applies unconditionally.
	ApproveApply func() (bool, error)

	// PrivateKey is the launch key used for credential decryption.
	PrivateKey *rsa.PrivateKey

	// Log receives stage progress. Nil disables it.
	Log Logger

	// State carries inter-stage results. RunConfigureOnly expects the
	// caller to have pre-populated the address and credential.
	State State
}

// RunFull executes Provision through Configure in order, stopping at the
// first failure. The returned error is the first stage failure, also
// recorded in the report.
func (p *Pipeline) RunFull(ctx context.Context) (*Report, error) {
	report := &Report{}

	runners := map[Stage]func(context.Context) error{
		StageProvision:          p.provision,
		StageAwaitNetwork:       p.awaitNetwork,
		StageRetrieveCredential: p.retrieveCredential,
		StagePatchInventory:     p.patchInventory,
		StageConfigure:          p.configure,
	}

	for i, stage := range fullRunStages {
		if stage == StageConfigure && p.Config.SkipConfigure {
			p.logf("[%s] skipped on request", stage)
			report.append(StageResult{Stage: stage, Status: StatusSkipped})
			continue
		}

		if err := p.runStage(ctx, report, stage, runners[stage]); err != nil {
			p.skipRemaining(report, fullRunStages[i+1:])
			return report, err
		}
	}

	return report, nil
}

// RunConfigureOnly runs PatchInventory and Configure against a
// caller-supplied address and credential. No provisioning, no probing.
func (p *Pipeline) RunConfigureOnly(ctx context.Context, address, credential string) (*Report, error) {
	report := &Report{}
	p.State.PublicIP = address
	p.State.AdminPassword = credential

	if err := p.runStage(ctx, report, StagePatchInventory, p.patchInventory); err != nil {
		p.skipRemaining(report, []Stage{StageConfigure})
		return report, err
	}
	if err := p.runStage(ctx, report, StageConfigure, p.configure); err != nil {
		return report, err
	}
	return report, nil
}

// RunConfigureExisting runs only the Configure stage against an inventory
// that already carries its address and credential from an earlier run. The
// patch stage is recorded as skipped, not omitted, so the report shape stays
// uniform across modes.
func (p *Pipeline) RunConfigureExisting(ctx context.Context) (*Report, error) {
	report := &Report{}
	report.append(StageResult{Stage: StagePatchInventory, Status: StatusSkipped})
	if err := p.runStage(ctx, report, StageConfigure, p.configure); err != nil {
		return report, err
	}
	return report, nil
}

// RunDestroy tears the infrastructure down. The other stages are untouched;
// the caller is responsible for any confirmation gate.
func (p *Pipeline) RunDestroy(ctx context.Context) (*Report, error) {
	report := &Report{}
	err := p.runStage(ctx, report, StageDestroy, func(ctx context.Context) error {
		return p.Infra.Destroy(ctx)
	})
	return report, err
}

// runStage executes one stage, timing it and recording the outcome.
func (p *Pipeline) runStage(ctx context.Context, report *Report, stage Stage, fn func(context.Context) error) error {
	p.logf("[%s] starting", stage)
	start := time.Now()

	err := fn(ctx)
	duration := time.Since(start).Round(time.Millisecond)

	if err != nil {
		p.logf("[%s] failed after %v: %v", stage, duration, err)
		report.append(StageResult{Stage: stage, Status: StatusFailed, Err: err, Duration: duration})
		return fmt.Errorf("%s stage failed: %w", stage, err)
	}

	p.logf("[%s] completed in %v", stage, duration)
	report.append(StageResult{Stage: stage, Status: StatusSucceeded, Duration: duration})
	return nil
}

func (p *Pipeline) skipRemaining(report *Report, stages []Stage) {
	for _, stage := range stages {
		report.append(StageResult{Stage: stage, Status: StatusSkipped})
	}
}

// provision runs init, plan, apply, then reads the three outputs the rest of
// the pipeline consumes. Convergence against existing infrastructure is
// delegated to the tool's own idempotence.
func (p *Pipeline) provision(ctx context.Context) error {
	if err := p.Infra.Init(ctx); err != nil {
		return err
	}
	if err := p.Infra.Plan(ctx); err != nil {
		return err
	}
	if p.ApproveApply != nil {
		ok, err := p.ApproveApply()
		if err != nil {
			return err
		}
		if !ok {
			return ErrPlanRejected
		}
	}
	if err := p.Infra.Apply(ctx); err != nil {
		return err
	}

	outputs, err := p.Infra.Outputs(ctx)
	if err != nil {
		return fmt.Errorf("failed to read provisioning outputs: %w", err)
	}
	p.State.InstanceID = outputs.InstanceID
	p.State.PublicIP = outputs.PublicIP
	p.State.PrivateIP = outputs.PrivateIP

	p.logf("Instance %s provisioned at %s", p.State.InstanceID, p.State.PublicIP)
	return nil
}

func (p *Pipeline) awaitNetwork(ctx context.Context) error {
	policy := p.Config.Probe
	result, err := p.Prober.WaitForPort(ctx, p.State.PublicIP, p.Config.WinRMPort, policy.MaxAttempts, policy.Interval)
	p.State.ProbeResult = result
	if err != nil {
		return err
	}
	if !result.Ready {
		return &NotReadyError{
			Address:  fmt.Sprintf("%s:%d", p.State.PublicIP, p.Config.WinRMPort),
			Attempts: result.Attempts,
			Budget:   result.Elapsed.Round(time.Second),
		}
	}
	return nil
}

func (p *Pipeline) retrieveCredential(ctx context.Context) error {
	policy := p.Config.Credential
	password, err := p.Credentials.FetchPassword(ctx, p.State.InstanceID, p.PrivateKey, policy.MaxAttempts, policy.Interval)
	if err != nil {
		return err
	}
	p.State.AdminPassword = password
	return nil
}

func (p *Pipeline) patchInventory(_ context.Context) error {
	return p.PatchInventory(p.Config.InventoryPath, p.State.PublicIP, p.State.AdminPassword)
}

func (p *Pipeline) configure(ctx context.Context) error {
	policy := p.Config.Configure
	result, err := p.Configure.Run(ctx, nil, policy.MaxRetries, policy.Backoff)
	p.State.ConfigureResult = result
	return err
}

func (p *Pipeline) logf(format string, v ...interface{}) {
	if p.Log != nil {
		p.Log.Printf(format, v...)
	}
}
