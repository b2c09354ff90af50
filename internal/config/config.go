// Package config defines the deployment request and its defaults.
//
// A Request is built once per invocation from the optional config file plus
// CLI flags and is never mutated afterwards. All tunables live here and are
// threaded explicitly through the pipeline; no component reads ambient
// process environment for its configuration.
package config

import (
	"fmt"
	"time"
)

// PollPolicy bounds a polling loop: how many attempts, how far apart.
type PollPolicy struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Interval    time.Duration `mapstructure:"interval"`
}

// RetryPolicy bounds the configuration run: how many extra attempts after
// the first failure, and the fixed backoff between them.
type RetryPolicy struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

// Request is the immutable input to a deployment run.
type Request struct {
	// Environment tags the target environment (dev, staging, prod).
	Environment string `mapstructure:"environment"`

	// Region is the AWS region infrastructure is created in.
	Region string `mapstructure:"region"`

	// InstanceType is the EC2 sizing class for the domain controller.
	InstanceType string `mapstructure:"instance_type"`

	// UseElasticIP allocates a static public address instead of an
	// instance-lifetime one.
	UseElasticIP bool `mapstructure:"use_elastic_ip"`

	// CreateRDS additionally provisions the optional database instance.
	CreateRDS bool `mapstructure:"create_rds"`

	// SkipConfigure stops the pipeline after the inventory patch; the
	// Configure stage is recorded as skipped.
	SkipConfigure bool `mapstructure:"skip_configure"`

	// Force bypasses destructive-action confirmation prompts and the
	// tfvars review pause.
	Force bool `mapstructure:"force"`

	// PrivateKeyPath locates the private half of the launch key pair used
	// to decrypt the one-time Administrator password.
	PrivateKeyPath string `mapstructure:"private_key_path"`

	// TerraformDir and AnsibleDir locate the declarative inputs.
	TerraformDir string `mapstructure:"terraform_dir"`
	AnsibleDir   string `mapstructure:"ansible_dir"`

	// InventoryPath is the inventory document patched before the
	// configuration run.
	InventoryPath string `mapstructure:"inventory_path"`

	// WinRMPort is the management port probed for readiness.
	WinRMPort int `mapstructure:"winrm_port"`

	// Probe bounds the WinRM readiness wait.
	Probe PollPolicy `mapstructure:"probe"`

	// Credential bounds the one-time password poll. Defaults mirror the
	// probe ceiling: both waits are gated by first-boot completion.
	Credential PollPolicy `mapstructure:"credential"`

	// Configure bounds the playbook retry loop.
	Configure RetryPolicy `mapstructure:"configure"`
}

// Default returns a Request with the stock policies.
func Default() *Request {
	return &Request{
		Environment:    "dev",
		Region:         "us-east-1",
		InstanceType:   "t3a.medium",
		PrivateKeyPath: "terraform/dc-automation-key",
		TerraformDir:   "terraform",
		AnsibleDir:     "ansible",
		InventoryPath:  "ansible/inventory/hosts.yml",
		WinRMPort:      5985,
		Probe:          PollPolicy{MaxAttempts: 20, Interval: 30 * time.Second},
		Credential:     PollPolicy{MaxAttempts: 20, Interval: 30 * time.Second},
		Configure:      RetryPolicy{MaxRetries: 2, Backoff: 30 * time.Second},
	}
}

// Validate checks the request for values no run can work with.
func (r *Request) Validate() error {
	if r.Environment == "" {
		return fmt.Errorf("environment must not be empty")
	}
	if r.Region == "" {
		return fmt.Errorf("region must not be empty")
	}
	if r.InstanceType == "" {
		return fmt.Errorf("instance_type must not be empty")
	}
	if r.WinRMPort <= 0 || r.WinRMPort > 65535 {
		return fmt.Errorf("winrm_port %d out of range", r.WinRMPort)
	}
	if r.Probe.MaxAttempts <= 0 {
		return fmt.Errorf("probe.max_attempts must be positive")
	}
	if r.Probe.Interval <= 0 {
		return fmt.Errorf("probe.interval must be positive")
	}
	if r.Credential.MaxAttempts <= 0 {
		return fmt.Errorf("credential.max_attempts must be positive")
	}
	if r.Credential.Interval <= 0 {
		return fmt.Errorf("credential.interval must be positive")
	}
	if r.Configure.MaxRetries < 0 {
		return fmt.Errorf("configure.max_retries must not be negative")
	}
	return nil
}
