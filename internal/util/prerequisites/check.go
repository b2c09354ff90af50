// Package prerequisites verifies the client tools a deployment shells out to
// before any stage runs, so a missing binary fails fast instead of ten
// minutes into a run.
package prerequisites

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Tool represents a client tool that may be required.
type Tool struct {
	// Name is the binary name to look for in PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallURL provides a URL for installation instructions.
	InstallURL string
}

// DefaultTools returns the tools every deployment needs.
func DefaultTools() []Tool {
	return []Tool{
		{
			Name:        "terraform",
			Required:    true,
			Description: "Required for provisioning and destroying the infrastructure",
			InstallURL:  "https://developer.hashicorp.com/terraform/install",
		},
		{
			Name:        "ansible-playbook",
			Required:    true,
			Description: "Required for the post-boot configuration run",
			InstallURL:  "https://docs.ansible.com/ansible/latest/installation_guide/",
		},
	}
}

// ConfigureTools returns the tools a configuration-only run needs; Terraform
// is not involved.
func ConfigureTools() []Tool {
	return []Tool{
		{
			Name:        "ansible-playbook",
			Required:    true,
			Description: "Required for the post-boot configuration run",
			InstallURL:  "https://docs.ansible.com/ansible/latest/installation_guide/",
		},
	}
}

// DestroyTools returns the tools a teardown needs; Ansible is not involved.
func DestroyTools() []Tool {
	return []Tool{
		{
			Name:        "terraform",
			Required:    true,
			Description: "Required for provisioning and destroying the infrastructure",
			InstallURL:  "https://developer.hashicorp.com/terraform/install",
		},
	}
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasErrors returns true if any required tools are missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return false
}

// Error returns an error if any required tools are missing.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.InstallURL))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
}

// Check verifies that the specified tools are available.
func Check(tools []Tool) *CheckResults {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		path, err := exec.LookPath(tool.Name)
		if err == nil {
			result.Found = true
			result.Path = path
			// Try to get version (best effort)
			result.Version = getToolVersion(tool.Name)
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results
}

// CallerIdentityAPI is the slice of the STS client the credential check uses.
type CallerIdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// NewSTSClient builds an STS client from the ambient credential chain.
func NewSTSClient(ctx context.Context, region string) (*sts.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sts.NewFromConfig(cfg), nil
}

// CheckAWSCredentials verifies the ambient AWS credentials actually work by
// asking who they belong to. Credentials that exist but are expired or
// malformed fail here instead of mid-provisioning.
func CheckAWSCredentials(ctx context.Context, api CallerIdentityAPI) error {
	if _, err := api.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return fmt.Errorf("AWS credentials not configured or invalid: %w", err)
	}
	return nil
}

// getToolVersion attempts to get the version of a tool.
// Returns empty string if version cannot be determined.
func getToolVersion(name string) string {
	versionFlags := []string{"--version", "version", "-v"}

	for _, flag := range versionFlags {
		// #nosec G204 - name comes from trusted Tool definitions, not user input
		cmd := exec.Command(name, flag)
		output, err := cmd.Output()
		if err == nil {
			lines := strings.Split(string(output), "\n")
			if len(lines) > 0 {
				return strings.TrimSpace(lines[0])
			}
		}
	}

	return ""
}
