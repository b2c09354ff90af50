package commands

import (
	"github.com/spf13/cobra"

	"github.com/dnedic/dc-deploy/cmd/dc-deploy/handlers"
)

// Destroy returns the destroy command.
//
// The destroy command tears down all Terraform-managed infrastructure. It
// asks for confirmation unless --force is given; in a non-interactive
// context without --force it refuses rather than proceeding silently.
func Destroy() *cobra.Command {
	var opts handlers.DestroyOptions

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy all deployed infrastructure",
		Long: `Destroy removes every resource the deployment created: the instance, its
addresses, security groups, and the optional RDS instance.

WARNING: This operation is irreversible. All data on the host will be lost.

Example:
  dc-deploy destroy --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
