package wizard

import (
	"context"
	"net"
	"regexp"

	"github.com/charmbracelet/huh"
)

// clusterNameRegex validates cluster name format: 1-32 lowercase alphanumeric with hyphens.
var clusterNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

func runClusterIdentityGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster Name").
				Description("1-32 lowercase alphanumeric characters or hyphens").
				Placeholder("my-cluster").
				Value(&result.ClusterName).
				Validate(validateClusterName),
			huh.NewSelect[string]().
				Title("Location").
				Description("Hetzner Cloud datacenter").
				Options(ToOptions(Locations)...).
				Value(&result.Location),
		).Title("Cluster Identity"),
	).RunWithContext(ctx)
}

func runControlPlaneGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server Type").
				Description("Server type for control plane nodes").
				Options(ToOptions(ControlPlaneServerTypes)...).
				Value(&result.ControlPlaneType),
			huh.NewSelect[int]().
				Title("Node Count").
				Description("Odd numbers keep etcd quorum").
				Options(ControlPlaneCountOptions...).
				Value(&result.ControlPlaneCount),
		).Title("Control Plane"),
	).RunWithContext(ctx)
}

func runWorkersGroup(ctx context.Context, result *Result) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Add Worker Nodes?").
				Description("Worker nodes run your application workloads").
				Value(&result.AddWorkers),
		).Title("Workers"),
	).RunWithContext(ctx)
	if err != nil || !result.AddWorkers {
		return err
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server Type").
				Description("Server type for worker nodes").
				Options(ToOptions(WorkerServerTypes)...).
				Value(&result.WorkerType),
			huh.NewSelect[int]().
				Title("Node Count").
				Options(WorkerCountOptions...).
				Value(&result.WorkerCount),
		).Title("Worker Configuration"),
	).RunWithContext(ctx)
}

func runVersionsGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Talos Version").
				Options(ToOptions(TalosVersions)...).
				Value(&result.TalosVersion),
			huh.NewSelect[string]().
				Title("Kubernetes Version").
				Options(ToOptions(KubernetesVersions)...).
				Value(&result.KubernetesVersion),
		).Title("Versions"),
	).RunWithContext(ctx)
}

func runNetworkGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Network CIDR").
				Description("Private network range").
				Value(&result.NetworkCIDR).
				Validate(validateCIDR),
			huh.NewInput().
				Title("Subnet CIDR").
				Description("Subnet for cluster servers, inside the network range").
				Value(&result.SubnetCIDR).
				Validate(validateCIDR),
		).Title("Network"),
	).RunWithContext(ctx)
}

func runCiliumGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable Hubble").
				Description("Network observability for Cilium").
				Value(&result.EnableHubble),
			huh.NewConfirm().
				Title("Enable IPv6").
				Value(&result.EnableIPv6),
		).Title("Cilium"),
	).RunWithContext(ctx)
}

func validateClusterName(s string) error {
	if s == "" {
		return errClusterNameRequired
	}
	if !clusterNameRegex.MatchString(s) {
		return errClusterNameInvalid
	}
	return nil
}

// validateCIDR validates a CIDR notation string using net.ParseCIDR.
func validateCIDR(s string) error {
	if s == "" {
		return errCIDRRequired
	}
	if _, _, err := net.ParseCIDR(s); err != nil {
		return errCIDRInvalid
	}
	return nil
}
