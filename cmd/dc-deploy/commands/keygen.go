package commands

import (
	"github.com/spf13/cobra"

	"github.com/dnedic/dc-deploy/cmd/dc-deploy/handlers"
)

// Keygen returns the keygen command.
//
// The keygen command generates the RSA launch key pair whose public half is
// injected into the instance at creation time and whose private half
// decrypts the one-time Administrator password.
func Keygen() *cobra.Command {
	var opts handlers.KeygenOptions

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate the RSA launch key pair",
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Keygen(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Overwrite an existing key pair")

	return cmd
}
