package wizard

import (
	"context"
	"fmt"

	"github.com/imamik/oxide/internal/config"
)

// Result holds all the answers from the interactive wizard.
type Result struct {
	ClusterName string
	Location    string

	ControlPlaneType  string
	ControlPlaneCount int

	AddWorkers  bool
	WorkerType  string
	WorkerCount int

	TalosVersion      string
	KubernetesVersion string

	// Only asked in advanced mode.
	NetworkCIDR  string
	SubnetCIDR   string
	EnableHubble bool
	EnableIPv6   bool
}

// NewResult returns a Result preselected with the example configuration.
func NewResult() *Result {
	return &Result{
		Location:          config.DefaultLocation,
		ControlPlaneType:  ControlPlaneServerTypes[0].Value,
		ControlPlaneCount: 3,
		AddWorkers:        true,
		WorkerType:        WorkerServerTypes[0].Value,
		WorkerCount:       3,
		TalosVersion:      TalosVersions[0].Value,
		KubernetesVersion: KubernetesVersions[0].Value,
		NetworkCIDR:       config.DefaultNetworkCIDR,
		SubnetCIDR:        config.DefaultSubnetCIDR,
		EnableHubble:      true,
	}
}

// RunWizard runs the interactive configuration wizard.
// If advanced is true, network and Cilium questions are shown as well.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context, advanced bool) (*Result, error) {
	result := NewResult()

	if err := runClusterIdentityGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("cluster identity: %w", err)
	}
	if err := runControlPlaneGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("control plane: %w", err)
	}
	if err := runWorkersGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("workers: %w", err)
	}
	if err := runVersionsGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("versions: %w", err)
	}

	if advanced {
		if err := runNetworkGroup(ctx, result); err != nil {
			return nil, fmt.Errorf("network: %w", err)
		}
		if err := runCiliumGroup(ctx, result); err != nil {
			return nil, fmt.Errorf("cilium: %w", err)
		}
	}

	return result, nil
}
