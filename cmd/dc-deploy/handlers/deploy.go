package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/dnedic/dc-deploy/internal/config"
	"github.com/dnedic/dc-deploy/internal/pipeline"
	"github.com/dnedic/dc-deploy/internal/terraform"
	"github.com/dnedic/dc-deploy/internal/ui"
	"github.com/dnedic/dc-deploy/internal/util/keygen"
	"github.com/dnedic/dc-deploy/internal/util/prerequisites"
)

// DeployOptions are the deploy command's flag values.
type DeployOptions struct {
	ConfigPath   string
	Environment  string
	Region       string
	InstanceType string
	ElasticIP    bool
	CreateRDS    bool
	SkipAnsible  bool
	Force        bool
}

// Deploy handles the deploy command.
//
// It runs the pre-flight checks, makes sure the launch key and tfvars exist,
// then executes the full pipeline and renders the report and access summary.
func Deploy(ctx context.Context, opts DeployOptions) error {
	cfg, err := resolveRequest(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyDeployOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Print(ui.Banner(fmt.Sprintf("Deploying %s environment to %s", cfg.Environment, cfg.Region)))

	if err := preflight(ctx, cfg, prerequisites.DefaultTools(), true); err != nil {
		return err
	}
	if err := ensureLaunchKey(cfg); err != nil {
		return err
	}
	if err := ensureTerraformVars(cfg); err != nil {
		return err
	}

	key, err := loadPrivateKey(cfg.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load launch key: %w", err)
	}
	fetcher, err := newPasswordFetcher(ctx, cfg.Region)
	if err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Config:         cfg,
		Infra:          newInfrastructure(cfg),
		Prober:         newPortWaiter(),
		Credentials:    fetcher,
		Configure:      newConfigurator(cfg),
		PatchInventory: patchInventory,
		PrivateKey:     key,
		Log:            log.Default(),
		ApproveApply: func() (bool, error) {
			return confirm("Apply the saved plan?", cfg.Force)
		},
	}

	report, runErr := p.RunFull(ctx)

	if errors.Is(runErr, pipeline.ErrPlanRejected) {
		log.Println("Deployment cancelled; no changes were applied.")
		return nil
	}
	fmt.Print(ui.RenderReport(report))

	if runErr != nil {
		printRecoveryHints(report, &p.State, cfg)
		return wrapRun(report, runErr)
	}

	fmt.Print(ui.Banner("Deployment complete"))
	fmt.Print(ui.RenderAccess(ui.AccessInfo{
		PublicIP:      p.State.PublicIP,
		AdminPassword: p.State.AdminPassword,
	}))
	p.State.ClearCredential()

	if cfg.SkipConfigure {
		log.Println("Configuration was skipped; run 'dc-deploy configure' to finish.")
	}
	return nil
}

// applyDeployOverrides layers the non-default flag values over the request.
func applyDeployOverrides(cfg *config.Request, opts DeployOptions) {
	if opts.Environment != "" {
		cfg.Environment = opts.Environment
	}
	if opts.Region != "" {
		cfg.Region = opts.Region
	}
	if opts.InstanceType != "" {
		cfg.InstanceType = opts.InstanceType
	}
	if opts.ElasticIP {
		cfg.UseElasticIP = true
	}
	if opts.CreateRDS {
		cfg.CreateRDS = true
	}
	if opts.SkipAnsible {
		cfg.SkipConfigure = true
	}
	if opts.Force {
		cfg.Force = true
	}
}

// ensureLaunchKey generates the launch key pair on first use. The public half
// must exist before Terraform runs because the instance resource references
// it.
func ensureLaunchKey(cfg *config.Request) error {
	if keyExists(cfg.PrivateKeyPath) {
		return nil
	}

	log.Printf("Launch key %s not found, generating a new %d-bit pair", cfg.PrivateKeyPath, keygen.DefaultBits)
	pair, err := generateKeyPair(keygen.DefaultBits)
	if err != nil {
		return fmt.Errorf("failed to generate launch key: %w", err)
	}
	return pair.WriteKeyPair(cfg.PrivateKeyPath)
}

// ensureTerraformVars renders terraform.tfvars from the example on first use
// and offers the operator a chance to review it before provisioning.
func ensureTerraformVars(cfg *config.Request) error {
	rendered, err := ensureVarsFile(cfg.TerraformDir, terraform.VarOverrides{
		Environment:  cfg.Environment,
		Region:       cfg.Region,
		InstanceType: cfg.InstanceType,
		UseElasticIP: cfg.UseElasticIP,
		CreateRDS:    cfg.CreateRDS,
	})
	if err != nil {
		return err
	}
	if !rendered {
		return nil
	}

	log.Printf("Rendered %s/terraform.tfvars from the example file", cfg.TerraformDir)
	ok, err := confirm("Review terraform.tfvars if needed. Proceed with this configuration?", cfg.Force)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("deployment cancelled: adjust %s/terraform.tfvars and re-run", cfg.TerraformDir)
	}
	return nil
}

// printRecoveryHints tells the operator how to continue after a stage
// failure. The hints never include credential material.
func printRecoveryHints(report *pipeline.Report, state *pipeline.State, cfg *config.Request) {
	stage, _, ok := report.Failed()
	if !ok {
		return
	}

	switch stage {
	case pipeline.StageAwaitNetwork:
		log.Printf("Check that instance %s is running and its security group allows TCP %d from this host.",
			state.InstanceID, cfg.WinRMPort)
		log.Println("Once the port is reachable, re-run 'dc-deploy deploy'; provisioning converges.")
	case pipeline.StageRetrieveCredential:
		log.Printf("Retrieve the password manually: aws ec2 get-password-data --instance-id %s --priv-launch-key %s",
			state.InstanceID, cfg.PrivateKeyPath)
		log.Println("Then resume with: dc-deploy configure --host <ip> --password <password>")
	case pipeline.StageConfigure:
		log.Println("The infrastructure is up and the inventory is patched.")
		log.Println("After fixing the failure, resume with: dc-deploy configure")
	}
}
