package config

import "gopkg.in/yaml.v3"

// ClusterConfig is the desired cluster topology.
type ClusterConfig struct {
	ClusterName   string          `yaml:"cluster_name"`
	HCloud        HCloudConfig    `yaml:"hcloud"`
	Talos         TalosConfig     `yaml:"talos"`
	Cilium        CiliumConfig    `yaml:"cilium"`
	ControlPlanes []NodePool      `yaml:"control_planes"`
	Workers       []NodePool      `yaml:"workers,omitempty"`
	Artifacts     ArtifactsConfig `yaml:"artifacts,omitempty"`
}

// HCloudConfig holds Hetzner Cloud settings.
type HCloudConfig struct {
	// Token is optional; HCLOUD_TOKEN is used when empty.
	Token    string        `yaml:"token,omitempty"`
	Location string        `yaml:"location"`
	Network  NetworkConfig `yaml:"network"`
}

// NetworkConfig describes the private network.
type NetworkConfig struct {
	CIDR       string `yaml:"cidr"`
	SubnetCIDR string `yaml:"subnet_cidr"`
	Zone       string `yaml:"zone"`
}

// TalosConfig holds Talos and Kubernetes settings.
type TalosConfig struct {
	Version           string `yaml:"version"`
	KubernetesVersion string `yaml:"kubernetes_version"`

	// ClusterEndpoint overrides the placeholder endpoint used to generate
	// the initial machine configs.
	ClusterEndpoint string `yaml:"cluster_endpoint,omitempty"`

	// HCloudSnapshotID is the Talos image snapshot servers boot from.
	HCloudSnapshotID string `yaml:"hcloud_snapshot_id,omitempty"`

	// ConfigPatches are deep-merged into every generated machine config.
	ConfigPatches []map[string]any `yaml:"config_patches,omitempty"`
}

// CiliumConfig holds Cilium chart settings.
type CiliumConfig struct {
	Version      string         `yaml:"version"`
	EnableHubble bool           `yaml:"enable_hubble"`
	EnableIPv6   bool           `yaml:"enable_ipv6"`
	HelmValues   map[string]any `yaml:"helm_values,omitempty"`
}

// UnmarshalYAML defaults EnableHubble to true.
func (c *CiliumConfig) UnmarshalYAML(value *yaml.Node) error {
	type raw CiliumConfig
	r := raw{EnableHubble: true}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*c = CiliumConfig(r)
	return nil
}

// NodePool is a group of identical servers.
type NodePool struct {
	Name       string            `yaml:"name"`
	ServerType string            `yaml:"server_type"`
	Count      int               `yaml:"count"`
	Labels     map[string]string `yaml:"labels,omitempty"`
}

// UnmarshalYAML defaults Count to 1.
func (p *NodePool) UnmarshalYAML(value *yaml.Node) error {
	type raw NodePool
	r := raw{Count: 1}
	if err := value.Decode(&r); err != nil {
		return err
	}
	*p = NodePool(r)
	return nil
}

// ArtifactsConfig configures where generated artifacts are mirrored.
type ArtifactsConfig struct {
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config describes an S3-compatible bucket (e.g. Hetzner Object Storage).
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Credentials are secrets resolved once per invocation and passed to
// clients explicitly.
type Credentials struct {
	HCloudToken string
}

// Pools returns the pools for a role name ("control-plane" or "worker").
func (c *ClusterConfig) Pools(controlPlane bool) []NodePool {
	if controlPlane {
		return c.ControlPlanes
	}
	return c.Workers
}

// Pool finds a pool by name.
func (c *ClusterConfig) Pool(controlPlane bool, name string) (NodePool, bool) {
	for _, p := range c.Pools(controlPlane) {
		if p.Name == name {
			return p, true
		}
	}
	return NodePool{}, false
}

// ControlPlaneCount returns the configured number of control plane nodes.
func (c *ClusterConfig) ControlPlaneCount() int {
	total := 0
	for _, p := range c.ControlPlanes {
		total += p.Count
	}
	return total
}
