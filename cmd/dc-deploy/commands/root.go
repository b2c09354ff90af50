// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the dc-deploy CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dc-deploy",
		Short: "Deploy a Windows domain controller on AWS with Terraform and Ansible",

		// Errors are printed once in main with the right exit code.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(Deploy())
	cmd.AddCommand(Configure())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(Keygen())
	cmd.AddCommand(Version())

	return cmd
}
