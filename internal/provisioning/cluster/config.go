package cluster

import (
	"fmt"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/platform/talos"
	"github.com/imamik/oxide/internal/provisioning"
)

// ConfigProvisioner generates the machine configs and talosconfig.
type ConfigProvisioner struct{}

// NewConfigProvisioner creates a new config phase.
func NewConfigProvisioner() *ConfigProvisioner {
	return &ConfigProvisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *ConfigProvisioner) Name() string {
	return "config"
}

// Provision implements the provisioning.Phase interface. Cluster secrets
// are reused from the output directory when present, so re-running create
// never rotates them.
func (p *ConfigProvisioner) Provision(ctx *provisioning.Context) error {
	cfg := ctx.Config

	sb, reused, err := talos.GetOrGenerateSecrets(ctx.Artifacts, cfg.Talos.Version)
	if err != nil {
		return fmt.Errorf("failed to load cluster secrets: %w", err)
	}
	if reused {
		ctx.Observer.Printf("[config] Reusing cluster secrets from %s", ctx.Artifacts.Path(artifacts.Secrets))
	}

	endpoint := cfg.Talos.ClusterEndpoint
	if endpoint == "" {
		endpoint = config.PlaceholderEndpoint
	}

	gen := talos.NewGenerator(cfg.ClusterName, cfg.Talos.KubernetesVersion, cfg.Talos.Version, endpoint, sb).
		WithPatches(cfg.Talos.ConfigPatches)

	generated, err := gen.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate talos configs: %w", err)
	}

	for _, a := range []struct {
		name string
		data []byte
	}{
		{artifacts.ControlPlaneYAML, generated.ControlPlane},
		{artifacts.WorkerYAML, generated.Worker},
		{artifacts.Talosconfig, generated.Talosconfig},
	} {
		if err := ctx.Artifacts.Write(a.name, a.data, artifacts.SecretPerm); err != nil {
			return fmt.Errorf("failed to save %s: %w", a.name, err)
		}
	}

	ctx.State.ControlPlaneConfig = generated.ControlPlane
	ctx.State.WorkerConfig = generated.Worker
	ctx.State.Talosconfig = generated.Talosconfig
	ctx.State.Endpoint = endpoint

	ctx.Observer.Printf("[config] Generated Talos %s configs for endpoint %s", cfg.Talos.Version, endpoint)
	return nil
}
