package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/provisioning/cluster"
	"github.com/imamik/oxide/internal/provisioning/cni"
	"github.com/imamik/oxide/internal/provisioning/compute"
	"github.com/imamik/oxide/internal/provisioning/infrastructure"
)

// Factory function variables for create - can be replaced in tests.
var (
	newInfraProvisioner   = func() provisioning.Phase { return infrastructure.NewProvisioner() }
	newConfigProvisioner  = func() provisioning.Phase { return cluster.NewConfigProvisioner() }
	newComputeProvisioner = func() provisioning.Phase { return compute.NewProvisioner() }
	newClusterProvisioner = func() provisioning.Phase { return cluster.NewProvisioner() }
	newCNIProvisioner     = func() provisioning.Phase { return cni.NewProvisioner(nil) }
)

// Create handles the create command.
//
// Phases run in order and the first failure stops the run:
//  1. infrastructure: firewall, network and SSH key
//  2. config: Talos secrets, machine configs and talosconfig
//  3. compute: all servers, then the firewall attachment
//  4. cluster: endpoint patch, etcd bootstrap, kubeconfig
//  5. cni: Cilium and node readiness
//
// Resources created before a failure are left in place; destroy removes
// them.
func Create(ctx context.Context, opts *Options) (err error) {
	start := time.Now()
	defer func() { err = record(opts, "create", start, err) }()

	pCtx, err := newContext(ctx, opts)
	if err != nil {
		return err
	}
	log.Printf("Creating cluster: %s", pCtx.Config.ClusterName)

	restoreArtifacts(pCtx)

	phases := []provisioning.Phase{
		newInfraProvisioner(),
		newConfigProvisioner(),
		newComputeProvisioner(),
		newClusterProvisioner(),
		newCNIProvisioner(),
	}
	runErr := provisioning.RunPhases(pCtx, phases)

	// Mirror whatever was generated, also after a failure: the secrets are
	// needed to recover the cluster.
	if mirror, merr := newMirror(pCtx, pCtx.Config); merr != nil {
		log.Printf("Warning: %v", merr)
	} else if mirror != nil {
		if serr := mirror.Sync(pCtx, pCtx.Artifacts); serr != nil {
			log.Printf("Warning: failed to mirror artifacts: %v", serr)
		}
	}

	if runErr != nil {
		return fmt.Errorf("create failed: %w", runErr)
	}

	printCreateSuccess(pCtx)
	return nil
}

func printCreateSuccess(pCtx *provisioning.Context) {
	fmt.Println()
	fmt.Printf("Cluster %s is ready.\n", pCtx.Config.ClusterName)
	fmt.Println()
	fmt.Printf("  API endpoint:  %s\n", pCtx.State.Endpoint)
	fmt.Printf("  Control planes: %d\n", len(pCtx.State.ControlPlanes))
	fmt.Printf("  Workers:        %d\n", len(pCtx.State.Workers))
	fmt.Println()
	fmt.Printf("  export KUBECONFIG=%s\n", pCtx.Artifacts.Path(artifacts.Kubeconfig))
	fmt.Printf("  export TALOSCONFIG=%s\n", pCtx.Artifacts.Path(artifacts.Talosconfig))
	fmt.Println()
}
