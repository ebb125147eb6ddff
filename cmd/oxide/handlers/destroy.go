package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/imamik/oxide/internal/provisioning/destroy"
)

// Factory function variables for destroy - can be replaced in tests.
var (
	// newDestroyProvisioner creates a new destroy provisioner.
	newDestroyProvisioner = func() Provisioner {
		return destroy.NewProvisioner()
	}
)

// Destroy handles the destroy command. Mirrored artifacts are purged after
// the cloud resources are gone; a purge failure is only a warning.
func Destroy(ctx context.Context, opts *Options) (err error) {
	start := time.Now()
	defer func() { err = record(opts, "destroy", start, err) }()

	pCtx, err := newContext(ctx, opts)
	if err != nil {
		return err
	}
	log.Printf("Destroying cluster: %s", pCtx.Config.ClusterName)

	if err := newDestroyProvisioner().Provision(pCtx); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	mirror, err := newMirror(pCtx, pCtx.Config)
	if err != nil {
		log.Printf("Warning: %v", err)
		return nil
	}
	if mirror != nil {
		log.Println("Cleaning up mirrored artifacts...")
		if err := mirror.Purge(pCtx); err != nil {
			log.Printf("Warning: artifact cleanup failed: %v", err)
		}
	}
	return nil
}
