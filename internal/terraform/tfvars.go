package terraform

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

const (
	varsFile        = "terraform.tfvars"
	varsExampleFile = "terraform.tfvars.example"
)

// VarOverrides are the request values substituted into a freshly rendered
// terraform.tfvars.
type VarOverrides struct {
	Environment  string
	Region       string
	InstanceType string
	UseElasticIP bool
	CreateRDS    bool
}

// EnsureVarsFile makes sure dir/terraform.tfvars exists. An existing file is
// left untouched. Otherwise it is rendered from terraform.tfvars.example with
// the override values substituted in, preserving every other line verbatim.
// Returns true if the file was freshly rendered, so the caller can offer the
// operator a chance to review it.
func EnsureVarsFile(dir string, overrides VarOverrides) (bool, error) {
	path := filepath.Join(dir, varsFile)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	example := filepath.Join(dir, varsExampleFile)
	content, err := os.ReadFile(example) // #nosec G304
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", varsExampleFile, err)
	}

	rendered := string(content)
	rendered = substitute(rendered, "environment", strconv.Quote(overrides.Environment))
	rendered = substitute(rendered, "aws_region", strconv.Quote(overrides.Region))
	rendered = substitute(rendered, "instance_type", strconv.Quote(overrides.InstanceType))
	rendered = substitute(rendered, "use_elastic_ip", strconv.FormatBool(overrides.UseElasticIP))
	rendered = substitute(rendered, "create_rds", strconv.FormatBool(overrides.CreateRDS))

	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", varsFile, err)
	}
	return true, nil
}

// substitute rewrites the value of a single `key = value` assignment,
// leaving indentation and the rest of the file alone. Keys absent from the
// example are ignored.
func substitute(content, key, value string) string {
	re := regexp.MustCompile(`(?m)^(\s*` + regexp.QuoteMeta(key) + `\s*=\s*).*$`)
	return re.ReplaceAllString(content, "${1}"+value)
}
