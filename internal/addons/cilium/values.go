package cilium

import (
	"github.com/imamik/oxide/internal/addons/helm"
	"github.com/imamik/oxide/internal/config"
)

// hubbleMetrics is the metric set enabled together with Hubble.
var hubbleMetrics = []string{
	"dns",
	"drop",
	"tcp",
	"flow",
	"port-distribution",
	"icmp",
	"httpV2:exemplars=true;labelsContext=source_ip,source_namespace,source_workload,destination_ip,destination_namespace,destination_workload,traffic_direction",
}

// buildValues returns the chart values for the cluster, with the user's
// helm_values merged last.
func buildValues(cfg config.CiliumConfig, controlPlanes int) helm.Values {
	operatorReplicas := 1
	if controlPlanes > 1 {
		operatorReplicas = 2
	}

	values := helm.Values{
		"ipam": helm.Values{
			"mode": "kubernetes",
		},
		"kubeProxyReplacement": true,
		"securityContext": helm.Values{
			"capabilities": helm.Values{
				"ciliumAgent":      []string{"CHOWN", "KILL", "NET_ADMIN", "NET_RAW", "IPC_LOCK", "SYS_ADMIN", "SYS_RESOURCE", "DAC_OVERRIDE", "FOWNER", "SETGID", "SETUID"},
				"cleanCiliumState": []string{"NET_ADMIN", "SYS_ADMIN", "SYS_RESOURCE"},
			},
		},
		"cgroup": helm.Values{
			"autoMount": helm.Values{"enabled": false},
			"hostRoot":  "/sys/fs/cgroup",
		},
		"operator": helm.Values{
			"replicas":   operatorReplicas,
			"prometheus": helm.Values{"enabled": true},
		},
		"prometheus": helm.Values{"enabled": true},
		"gatewayAPI": helm.Values{"enabled": true},

		// KubePrism
		"k8sServiceHost": "localhost",
		"k8sServicePort": config.KubePrismPort,

		// The private network routes through its gateway, so pod traffic
		// is tunnelled and LoadBalancer services use node IPAM.
		"nodeIPAM":             helm.Values{"enabled": true},
		"tunnelProtocol":       "vxlan",
		"autoDirectNodeRoutes": false,
		"bpf":                  helm.Values{"masquerade": true},
		"loadBalancer":         helm.Values{"acceleration": "native"},
		"defaultLBServiceIPAM": "nodeipam",
	}

	if cfg.EnableHubble {
		values["hubble"] = helm.Values{
			"enabled": true,
			"relay":   helm.Values{"enabled": true},
			"ui":      helm.Values{"enabled": true},
			"metrics": helm.Values{"enabled": hubbleMetrics},
		}
	} else {
		values["hubble"] = helm.Values{"enabled": false}
	}

	if cfg.EnableIPv6 {
		values["ipv6"] = helm.Values{"enabled": true}
	}

	return helm.Merge(values, cfg.HelmValues)
}
