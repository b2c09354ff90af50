// Package main is the entry point for the dc-deploy CLI.
//
// dc-deploy provisions a Windows Server domain controller on AWS with
// Terraform and configures it with Ansible: it creates the infrastructure,
// waits for WinRM to come up, retrieves and decrypts the one-time
// Administrator password, patches the Ansible inventory, and drives the
// playbook run to completion with bounded retries.
//
// Commands: deploy, configure, destroy, keygen, version.
//
// For detailed usage information, run:
//
//	dc-deploy --help
package main

import (
	"fmt"
	"os"

	"github.com/dnedic/dc-deploy/cmd/dc-deploy/commands"
	"github.com/dnedic/dc-deploy/cmd/dc-deploy/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(handlers.ExitCode(err))
	}
}
