package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Example returns the configuration written by "oxide init".
func Example() *ClusterConfig {
	return &ClusterConfig{
		ClusterName: "my-cluster",
		HCloud: HCloudConfig{
			Location: DefaultLocation,
			Network: NetworkConfig{
				CIDR:       DefaultNetworkCIDR,
				SubnetCIDR: DefaultSubnetCIDR,
				Zone:       DefaultNetworkZone,
			},
		},
		Talos: TalosConfig{
			Version:           DefaultTalosVersion,
			KubernetesVersion: DefaultKubernetesVersion,
		},
		Cilium: CiliumConfig{
			Version:      DefaultCiliumVersion,
			EnableHubble: true,
		},
		ControlPlanes: []NodePool{
			{Name: "control-plane", ServerType: "cpx21", Count: 3},
		},
		Workers: []NodePool{
			{Name: "worker", ServerType: "cpx31", Count: 3},
		},
	}
}

const exampleHeader = `# oxide cluster configuration
#
# The Hetzner Cloud token is read from hcloud.token or, when unset,
# from the HCLOUD_TOKEN environment variable.
#
# Create the cluster with: oxide create
`

// MarshalDocument renders a configuration with the explanatory header.
func MarshalDocument(cfg *ClusterConfig) ([]byte, error) {
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return append([]byte(exampleHeader+"\n"), body...), nil
}
