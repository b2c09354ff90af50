package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "dc-deploy", cmd.Use)
	assert.Equal(t, "Deploy a Windows domain controller on AWS with Terraform and Ansible", cmd.Short)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	expectedSubcommands := []string{
		"deploy",
		"configure",
		"destroy",
		"keygen",
		"version",
	}

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range expectedSubcommands {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
}

func TestRoot_SubcommandCount(t *testing.T) {
	cmd := Root()
	assert.Len(t, cmd.Commands(), 5, "Expected 5 subcommands")
}

func TestConfigure_HasAnsibleOnlyAlias(t *testing.T) {
	cmd := Configure()
	assert.Contains(t, cmd.Aliases, "ansible-only")
}

func TestDeploy_Flags(t *testing.T) {
	cmd := Deploy()

	for _, name := range []string{
		"config", "environment", "region", "instance-type",
		"elastic-ip", "create-rds", "skip-ansible", "force",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "Expected flag %s not found", name)
	}
}
