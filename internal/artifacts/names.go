package artifacts

import "os"

// Well-known artifact names.
const (
	SSHPrivateKey    = "id_ed25519"
	SSHPublicKey     = "id_ed25519.pub"
	Secrets          = "secrets.yaml"
	ControlPlaneYAML = "controlplane.yaml"
	WorkerYAML       = "worker.yaml"
	Talosconfig      = "talosconfig"
	Kubeconfig       = "kubeconfig"
)

// Permissions for artifacts. Everything except the public key is a secret.
const (
	SecretPerm os.FileMode = 0600
	PublicPerm os.FileMode = 0644
	DirPerm    os.FileMode = 0700
)
