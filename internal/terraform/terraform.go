// Package terraform wraps the Terraform CLI for the infrastructure stage.
//
// The orchestrator treats Terraform as an opaque collaborator: it drives
// init/plan/apply/destroy as subprocesses and consumes exactly three named
// outputs (instance id, public address, private address). Convergence against
// already-existing infrastructure is Terraform's own concern; nothing here
// diffs state.
package terraform

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dnedic/dc-deploy/internal/executor"
)

// PlanFile is the saved plan applied after review.
const PlanFile = "tfplan"

// Outputs holds the provisioning results the orchestrator consumes.
type Outputs struct {
	InstanceID string
	PublicIP   string
	PrivateIP  string
}

// Logger receives progress output.
type Logger interface {
	Printf(format string, v ...interface{})
}

// CLI drives the terraform binary in a fixed working directory.
type CLI struct {
	// Dir is the directory holding the root module.
	Dir string

	// Runner executes the subprocesses.
	Runner executor.Runner

	// Log receives progress output. Nil disables it.
	Log Logger
}

// New creates a Terraform CLI wrapper rooted at dir.
func New(dir string, runner executor.Runner) *CLI {
	return &CLI{Dir: dir, Runner: runner}
}

// Init runs terraform init.
func (c *CLI) Init(ctx context.Context) error {
	return c.run(ctx, "init", "-input=false")
}

// Plan runs terraform plan and saves the plan to PlanFile for later apply.
func (c *CLI) Plan(ctx context.Context) error {
	return c.run(ctx, "plan", "-input=false", "-out="+PlanFile)
}

// Apply applies the previously saved plan.
func (c *CLI) Apply(ctx context.Context) error {
	return c.run(ctx, "apply", "-input=false", PlanFile)
}

// Destroy tears down all managed infrastructure without prompting; the
// caller is responsible for confirming the operation with the operator first.
func (c *CLI) Destroy(ctx context.Context) error {
	return c.run(ctx, "destroy", "-input=false", "-auto-approve")
}

// OutputRaw returns the value of a single output in raw form.
func (c *CLI) OutputRaw(ctx context.Context, name string) (string, error) {
	result, err := c.Runner.Run(ctx, executor.Command{
		Name: "terraform",
		Args: []string{"output", "-raw", name},
		Dir:  c.Dir,
	})
	if err != nil {
		return "", fmt.Errorf("terraform output %s: %w", name, err)
	}
	if result.ExitCode != 0 {
		return "", &executor.ToolFailure{
			Tool:     "terraform output " + name,
			ExitCode: result.ExitCode,
			Stderr:   strings.TrimSpace(result.Stderr),
		}
	}
	return strings.TrimSpace(result.Stdout), nil
}

// Outputs reads the three outputs the orchestrator consumes. The private
// address output is optional in older root modules and defaults to empty.
func (c *CLI) Outputs(ctx context.Context) (Outputs, error) {
	instanceID, err := c.OutputRaw(ctx, "instance_id")
	if err != nil {
		return Outputs{}, err
	}
	publicIP, err := c.OutputRaw(ctx, "instance_public_ip")
	if err != nil {
		return Outputs{}, err
	}
	privateIP, err := c.OutputRaw(ctx, "instance_private_ip")
	if err != nil {
		privateIP = ""
	}
	return Outputs{
		InstanceID: instanceID,
		PublicIP:   publicIP,
		PrivateIP:  privateIP,
	}, nil
}

// run executes a terraform subcommand, streaming its output to the operator.
func (c *CLI) run(ctx context.Context, args ...string) error {
	c.logf("Running: terraform %s", strings.Join(args, " "))

	result, err := c.Runner.Run(ctx, executor.Command{
		Name:   "terraform",
		Args:   args,
		Dir:    c.Dir,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("terraform %s: %w", args[0], err)
	}
	if result.ExitCode != 0 {
		return &executor.ToolFailure{
			Tool:     "terraform " + args[0],
			ExitCode: result.ExitCode,
		}
	}
	return nil
}

func (c *CLI) logf(format string, v ...interface{}) {
	if c.Log != nil {
		c.Log.Printf(format, v...)
	}
}
