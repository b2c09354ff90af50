package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/dnedic/dc-deploy/internal/pipeline"
	"github.com/dnedic/dc-deploy/internal/ui"
	"github.com/dnedic/dc-deploy/internal/util/prerequisites"
)

// DestroyOptions are the destroy command's flag values.
type DestroyOptions struct {
	ConfigPath string
	Force      bool
}

// Destroy handles the destroy command.
//
// It tears down everything Terraform manages. The confirmation gate is here,
// not in the pipeline, so the pipeline stays prompt-free.
func Destroy(ctx context.Context, opts DestroyOptions) error {
	cfg, err := resolveRequest(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Force {
		cfg.Force = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := preflight(ctx, cfg, prerequisites.DestroyTools(), false); err != nil {
		return err
	}

	fmt.Print(ui.Banner(fmt.Sprintf("Destroying %s environment in %s", cfg.Environment, cfg.Region)))
	log.Println("This removes the instance, its addresses, and all data on it.")

	ok, err := confirm("Destroy all deployed infrastructure?", cfg.Force)
	if err != nil {
		return err
	}
	if !ok {
		log.Println("Destroy cancelled.")
		return nil
	}

	p := &pipeline.Pipeline{
		Config: cfg,
		Infra:  newInfrastructure(cfg),
		Log:    log.Default(),
	}

	report, runErr := p.RunDestroy(ctx)
	fmt.Print(ui.RenderReport(report))
	if runErr != nil {
		return wrapRun(report, runErr)
	}

	log.Println("All infrastructure destroyed.")
	return nil
}
