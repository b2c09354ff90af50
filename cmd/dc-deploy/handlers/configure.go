package handlers

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dnedic/dc-deploy/internal/inventory"
	"github.com/dnedic/dc-deploy/internal/pipeline"
	"github.com/dnedic/dc-deploy/internal/ui"
	"github.com/dnedic/dc-deploy/internal/util/prerequisites"
)

// ConfigureOptions are the configure command's flag values.
type ConfigureOptions struct {
	ConfigPath string
	Host       string
	Password   string
}

// Configure handles the configure command.
//
// With an explicit host and password the inventory is patched first. Without
// them the inventory must already carry its credential from an earlier
// deploy; an inventory that never was patched is rejected up front instead of
// failing minutes into the playbook run.
func Configure(ctx context.Context, opts ConfigureOptions) error {
	cfg, err := resolveRequest(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if (opts.Host == "") != (opts.Password == "") {
		return fmt.Errorf("--host and --password must be given together")
	}

	if err := preflight(ctx, cfg, prerequisites.ConfigureTools(), false); err != nil {
		return err
	}

	p := &pipeline.Pipeline{
		Config:         cfg,
		Configure:      newConfigurator(cfg),
		PatchInventory: patchInventory,
		Log:            log.Default(),
	}

	fmt.Print(ui.Banner("Running Ansible configuration"))

	var (
		report *pipeline.Report
		runErr error
	)
	if opts.Host != "" {
		report, runErr = p.RunConfigureOnly(ctx, opts.Host, opts.Password)
	} else {
		doc, err := os.ReadFile(cfg.InventoryPath) // #nosec G304
		if err != nil {
			return fmt.Errorf("failed to read inventory: %w", err)
		}
		if !inventory.HasPasswordField(doc) {
			return fmt.Errorf("inventory %s carries no credential; pass --host and --password or run a full deploy",
				cfg.InventoryPath)
		}
		report, runErr = p.RunConfigureExisting(ctx)
	}

	fmt.Print(ui.RenderReport(report))
	p.State.ClearCredential()

	if runErr != nil {
		return wrapRun(report, runErr)
	}
	log.Println("Configuration complete.")
	return nil
}
