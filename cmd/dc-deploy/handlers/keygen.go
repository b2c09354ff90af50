package handlers

import (
	"fmt"
	"log"

	"github.com/dnedic/dc-deploy/internal/util/keygen"
)

// KeygenOptions are the keygen command's flag values.
type KeygenOptions struct {
	ConfigPath string
	Force      bool
}

// Keygen handles the keygen command.
//
// An existing pair is never silently overwritten: the private half may be the
// only way to decrypt the password of an instance that is still running.
func Keygen(opts KeygenOptions) error {
	cfg, err := resolveRequest(opts.ConfigPath)
	if err != nil {
		return err
	}

	if keyExists(cfg.PrivateKeyPath) && !opts.Force {
		return fmt.Errorf("launch key %s already exists (use --force to overwrite)", cfg.PrivateKeyPath)
	}

	log.Printf("Generating %d-bit RSA launch key pair...", keygen.DefaultBits)
	pair, err := generateKeyPair(keygen.DefaultBits)
	if err != nil {
		return fmt.Errorf("failed to generate launch key: %w", err)
	}
	if err := pair.WriteKeyPair(cfg.PrivateKeyPath); err != nil {
		return err
	}

	log.Printf("Wrote %s and %s.pub", cfg.PrivateKeyPath, cfg.PrivateKeyPath)
	return nil
}
