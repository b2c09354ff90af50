package commands

import (
	"github.com/spf13/cobra"

	"github.com/dnedic/dc-deploy/cmd/dc-deploy/handlers"
)

// Deploy returns the deploy command.
//
// The deploy command runs the full pipeline: Terraform provisioning, WinRM
// readiness wait, one-time password retrieval, inventory patch, and the
// Ansible configuration run.
func Deploy() *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision the infrastructure and configure the domain controller",
		Long: `Deploy provisions the Windows Server instance with Terraform and brings it
to its fully configured state with Ansible.

Pipeline stages:
  1. Provision           terraform init/plan/apply
  2. AwaitNetwork        wait for WinRM (up to 10 minutes)
  3. RetrieveCredential  fetch and decrypt the one-time Administrator password
  4. PatchInventory      merge address and credential into the inventory
  5. Configure           ansible-playbook with bounded retries

Example:
  dc-deploy deploy --environment prod --region eu-central-1 --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Deploy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().StringVar(&opts.Environment, "environment", "", "Environment name (default: dev)")
	cmd.Flags().StringVar(&opts.Region, "region", "", "AWS region (default: us-east-1)")
	cmd.Flags().StringVar(&opts.InstanceType, "instance-type", "", "EC2 instance type (default: t3a.medium)")
	cmd.Flags().BoolVar(&opts.ElasticIP, "elastic-ip", false, "Allocate a static Elastic IP for the instance")
	cmd.Flags().BoolVar(&opts.CreateRDS, "create-rds", false, "Additionally create the optional RDS instance")
	cmd.Flags().BoolVar(&opts.SkipAnsible, "skip-ansible", false, "Stop after the inventory patch; skip the configuration run")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Skip confirmation prompts")

	return cmd
}
