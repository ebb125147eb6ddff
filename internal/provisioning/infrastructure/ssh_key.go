package infrastructure

import (
	"fmt"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/util/keygen"
	"github.com/imamik/oxide/internal/util/labels"
	"github.com/imamik/oxide/internal/util/naming"
)

// ProvisionSSHKey ensures the cluster SSH key. A fresh key pair is
// generated on every run, but the private key is only written when the
// public half was actually uploaded; a reused key keeps the private key
// from the run that created it.
func (p *Provisioner) ProvisionSSHKey(ctx *provisioning.Context) error {
	name := naming.SSHKey(ctx.Config.ClusterName)
	ctx.Observer.Printf("[%s] Reconciling SSH key %s...", phase, name)

	pair, err := keygen.GenerateEd25519KeyPair(name)
	if err != nil {
		return err
	}

	keyLabels := labels.NewLabelBuilder(ctx.Config.ClusterName).Build()

	key, created, err := ctx.Infra.EnsureSSHKey(ctx, name, string(pair.PublicKey), keyLabels)
	if err != nil {
		return fmt.Errorf("failed to ensure SSH key: %w", err)
	}
	ctx.State.SSHKey = key

	if !created {
		provisioning.LogResourceCreated(ctx.Observer, phase, "ssh key", name, key.ID, false)
		if !ctx.Artifacts.Exists(artifacts.SSHPrivateKey) {
			provisioning.LogWarning(ctx.Observer, phase,
				"SSH key %s exists but %s is not in the output directory", name, artifacts.SSHPrivateKey)
		}
		return nil
	}

	if err := ctx.Artifacts.Write(artifacts.SSHPrivateKey, pair.PrivateKey, artifacts.SecretPerm); err != nil {
		return fmt.Errorf("failed to save SSH private key: %w", err)
	}
	if err := ctx.Artifacts.Write(artifacts.SSHPublicKey, pair.PublicKey, artifacts.PublicPerm); err != nil {
		return fmt.Errorf("failed to save SSH public key: %w", err)
	}
	provisioning.LogResourceCreated(ctx.Observer, phase, "ssh key", name, key.ID, true)
	return nil
}
