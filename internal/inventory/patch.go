// Package inventory performs targeted updates on the Ansible inventory.
//
// The inventory document is owned by the configuration layer, not by this
// tool: organizational grouping, role parameters, and feature toggles pass
// through untouched. Only the host address and the authentication secret are
// rewritten, by editing the parsed YAML node tree in place so comments,
// ordering, and quoting of everything else survive the round trip.
package inventory

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	hostKey     = "ansible_host"
	passwordKey = "ansible_password"
)

// SchemaError indicates the inventory template is missing the fields this
// tool patches, meaning the document is incompatible with the orchestrator.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("inventory document is missing required field(s): %s",
		strings.Join(e.Missing, ", "))
}

// Patch rewrites the ansible_host and ansible_password values in doc and
// returns the re-encoded document. Every other field is preserved, including
// comments and key order. Fails with SchemaError if either field is absent.
func Patch(doc []byte, address, credential string) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}

	hostFound := setScalarValues(&root, hostKey, address, 0)
	passwordFound := setScalarValues(&root, passwordKey, credential, yaml.DoubleQuotedStyle)

	var missing []string
	if !hostFound {
		missing = append(missing, hostKey)
	}
	if !passwordFound {
		missing = append(missing, passwordKey)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root.Content[0]); err != nil {
		return nil, fmt.Errorf("failed to re-encode inventory: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to re-encode inventory: %w", err)
	}
	return buf.Bytes(), nil
}

// PatchFile applies Patch to the document at path, writing the result back
// with owner-only permissions: the patched document now carries a credential.
func PatchFile(path, address, credential string) error {
	doc, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}

	patched, err := Patch(doc, address, credential)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, patched, 0o600); err != nil {
		return fmt.Errorf("failed to write inventory: %w", err)
	}
	// WriteFile applies the mode only on creation; tighten a pre-existing
	// world-readable template too.
	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict inventory permissions: %w", err)
	}
	return nil
}

// HasPasswordField reports whether the document carries an ansible_password
// entry at all, used by configure-only mode to fail early with guidance
// instead of handing Ansible an unauthenticated inventory.
func HasPasswordField(doc []byte) bool {
	var root yaml.Node
	if err := yaml.Unmarshal(doc, &root); err != nil {
		return false
	}
	return findKey(&root, passwordKey)
}

// setScalarValues walks the node tree and rewrites the value of every
// mapping entry named key. Returns true if at least one entry was updated.
func setScalarValues(node *yaml.Node, key, value string, style yaml.Style) bool {
	found := false
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i], node.Content[i+1]
			if k.Value == key && v.Kind == yaml.ScalarNode {
				v.SetString(value)
				if style != 0 {
					v.Style = style
				}
				found = true
			}
		}
	}
	for _, child := range node.Content {
		if setScalarValues(child, key, value, style) {
			found = true
		}
	}
	return found
}

func findKey(node *yaml.Node, key string) bool {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return true
			}
		}
	}
	for _, child := range node.Content {
		if findKey(child, key) {
			return true
		}
	}
	return false
}
