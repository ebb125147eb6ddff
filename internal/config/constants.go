package config

// Common port numbers used throughout the application.
const (
	// KubeAPIPort is the standard Kubernetes API server port.
	KubeAPIPort = 6443

	// TalosAPIPort is the Talos apid port.
	TalosAPIPort = 50000

	// IngressPort is the public HTTP ingress port opened to everyone.
	IngressPort = 80

	// KubePrismPort is the node-local API server load balancer Cilium talks to.
	KubePrismPort = 7445
)

// PlaceholderEndpoint is used for the initial Talos configs, before the
// first control plane's address is known.
const PlaceholderEndpoint = "https://127.0.0.1:6443"

const (
	// DefaultConfigFile is the default cluster specification path.
	DefaultConfigFile = "cluster.yaml"

	// DefaultOutputDir is the default directory for generated artifacts.
	DefaultOutputDir = "./output"

	// TokenEnvVar is read when the config file carries no token.
	TokenEnvVar = "HCLOUD_TOKEN" //nolint:gosec // env var name, not a credential
)

// Defaults applied when a field is absent from cluster.yaml.
const (
	DefaultLocation          = "nbg1"
	DefaultNetworkCIDR       = "10.0.0.0/16"
	DefaultSubnetCIDR        = "10.0.1.0/24"
	DefaultNetworkZone       = "eu-central"
	DefaultTalosVersion      = "v1.7.0"
	DefaultKubernetesVersion = "1.30.0"
	DefaultCiliumVersion     = "1.15.0"
)
