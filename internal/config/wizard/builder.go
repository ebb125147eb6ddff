package wizard

import "github.com/imamik/oxide/internal/config"

// BuildConfig creates a ClusterConfig from the wizard result.
func BuildConfig(result *Result) *config.ClusterConfig {
	cfg := config.Example()
	cfg.ClusterName = result.ClusterName
	cfg.HCloud.Location = result.Location
	if zone, ok := NetworkZones[result.Location]; ok {
		cfg.HCloud.Network.Zone = zone
	}
	if result.NetworkCIDR != "" {
		cfg.HCloud.Network.CIDR = result.NetworkCIDR
	}
	if result.SubnetCIDR != "" {
		cfg.HCloud.Network.SubnetCIDR = result.SubnetCIDR
	}

	cfg.Talos.Version = result.TalosVersion
	cfg.Talos.KubernetesVersion = result.KubernetesVersion
	cfg.Cilium.EnableHubble = result.EnableHubble
	cfg.Cilium.EnableIPv6 = result.EnableIPv6

	cfg.ControlPlanes = []config.NodePool{
		{Name: "control-plane", ServerType: result.ControlPlaneType, Count: result.ControlPlaneCount},
	}
	cfg.Workers = nil
	if result.AddWorkers && result.WorkerCount > 0 {
		cfg.Workers = []config.NodePool{
			{Name: "worker", ServerType: result.WorkerType, Count: result.WorkerCount},
		}
	}

	return cfg
}
