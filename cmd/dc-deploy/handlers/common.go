// Package handlers implements the business logic behind the CLI commands.
//
// Handlers are thin: they resolve the request, run the pre-flight checks,
// assemble the pipeline from its collaborators, and render the outcome. The
// collaborators are created through package-level factory variables so tests
// can swap them for mocks.
package handlers

import (
	"context"
	"log"

	"github.com/dnedic/dc-deploy/internal/ansible"
	"github.com/dnedic/dc-deploy/internal/config"
	"github.com/dnedic/dc-deploy/internal/credentials"
	"github.com/dnedic/dc-deploy/internal/executor"
	"github.com/dnedic/dc-deploy/internal/inventory"
	"github.com/dnedic/dc-deploy/internal/pipeline"
	"github.com/dnedic/dc-deploy/internal/probe"
	"github.com/dnedic/dc-deploy/internal/terraform"
	"github.com/dnedic/dc-deploy/internal/ui"
	"github.com/dnedic/dc-deploy/internal/util/keygen"
	"github.com/dnedic/dc-deploy/internal/util/prerequisites"
)

// Factory function variables - can be replaced in tests.
var (
	// loadConfigFile loads a deployment request from a YAML file.
	loadConfigFile = config.LoadFile

	// newInfrastructure creates the Terraform wrapper for the request.
	newInfrastructure = func(cfg *config.Request) pipeline.Infrastructure {
		tf := terraform.New(cfg.TerraformDir, executor.NewLocal())
		tf.Log = log.Default()
		return tf
	}

	// newPortWaiter creates the WinRM readiness prober.
	newPortWaiter = func() pipeline.PortWaiter {
		p := probe.New()
		p.Log = log.Default()
		return p
	}

	// newPasswordFetcher creates the credential retriever over a real EC2
	// client for the request's region.
	newPasswordFetcher = func(ctx context.Context, region string) (pipeline.PasswordFetcher, error) {
		api, err := credentials.NewEC2Client(ctx, region)
		if err != nil {
			return nil, err
		}
		r := credentials.NewRetriever(api)
		r.Log = log.Default()
		return r, nil
	}

	// newConfigurator creates the Ansible runner for the request.
	newConfigurator = func(cfg *config.Request) pipeline.Configurator {
		a := ansible.New(cfg.AnsibleDir, executor.NewLocal())
		a.Log = log.Default()
		return a
	}

	// newIdentityAPI creates the STS client the AWS credential check uses.
	newIdentityAPI = func(ctx context.Context, region string) (prerequisites.CallerIdentityAPI, error) {
		return prerequisites.NewSTSClient(ctx, region)
	}

	checkTools          = prerequisites.Check
	checkAWSCredentials = prerequisites.CheckAWSCredentials
	confirm             = ui.Confirm
	loadPrivateKey      = credentials.LoadPrivateKey
	ensureVarsFile      = terraform.EnsureVarsFile
	patchInventory      = inventory.PatchFile
	keyExists           = keygen.Exists
	generateKeyPair     = keygen.GenerateRSAKeyPair
)

// resolveRequest loads the deployment request: the file at configPath layered
// over the defaults, or plain defaults when no file is given.
func resolveRequest(configPath string) (*config.Request, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return loadConfigFile(configPath)
}

// preflight verifies the client tools and, when asked, the ambient AWS
// credentials before any stage runs.
func preflight(ctx context.Context, cfg *config.Request, tools []prerequisites.Tool, awsCheck bool) error {
	results := checkTools(tools)
	for _, r := range results.Results {
		if r.Found {
			log.Printf("Found %s: %s", r.Tool.Name, r.Version)
		}
	}
	if err := results.Error(); err != nil {
		return err
	}

	if !awsCheck {
		return nil
	}
	api, err := newIdentityAPI(ctx, cfg.Region)
	if err != nil {
		return err
	}
	return checkAWSCredentials(ctx, api)
}

// wrapRun attaches the failed stage from the report to a pipeline error so
// ExitCode can classify it.
func wrapRun(report *pipeline.Report, err error) error {
	if err == nil {
		return nil
	}
	if stage, _, ok := report.Failed(); ok {
		return &RunError{Stage: stage, Err: err}
	}
	return err
}
