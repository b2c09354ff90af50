package commands

import (
	"github.com/spf13/cobra"

	"github.com/dnedic/dc-deploy/cmd/dc-deploy/handlers"
)

// Configure returns the configure command.
//
// The configure command skips provisioning entirely and runs only the
// configuration side of the pipeline against an existing host.
func Configure() *cobra.Command {
	var opts handlers.ConfigureOptions

	cmd := &cobra.Command{
		Use:     "configure",
		Aliases: []string{"ansible-only"},
		Short:   "Run only the Ansible configuration against an existing host",
		Long: `Configure runs the configuration stages against infrastructure that already
exists.

With --host and --password the inventory is patched first, then the playbook
runs. Without them the inventory is used as-is and must already carry its
credential from an earlier deploy.

Example:
  dc-deploy configure --host 203.0.113.10 --password 'S3cr3t!'
  dc-deploy ansible-only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Configure(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to deployment configuration file")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Address of the existing host (patched into the inventory)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Administrator password (patched into the inventory)")

	return cmd
}
