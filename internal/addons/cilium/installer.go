package cilium

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"helm.sh/helm/v3/pkg/release"

	"github.com/imamik/oxide/internal/addons/helm"
	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/fault"
)

const (
	// Namespace is where the chart is installed.
	Namespace = "kube-system"
	// ReleaseName is the helm release name.
	ReleaseName = "cilium"
	// ChartRepository is the official chart repository.
	ChartRepository = "https://helm.cilium.io/"
	// PodSelector matches the agent pods.
	PodSelector = "k8s-app=cilium"
	// FieldManager is the server-side apply field manager.
	FieldManager = "oxide"

	// GatewayAPIVersion is the Gateway API release whose CRDs are applied.
	GatewayAPIVersion = "v1.3.0"
)

// GatewayAPICRDsURL is the experimental channel manifest of GatewayAPIVersion.
var GatewayAPICRDsURL = fmt.Sprintf(
	"https://github.com/kubernetes-sigs/gateway-api/releases/download/%s/experimental-install.yaml",
	GatewayAPIVersion,
)

// ChartInstaller installs helm charts.
type ChartInstaller interface {
	InstallOrUpgrade(ctx context.Context, releaseName string, spec helm.ChartSpec, values helm.Values) (*release.Release, error)
}

// Cluster is the Kubernetes access the installer needs.
type Cluster interface {
	ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error
	PodsReady(ctx context.Context, namespace, labelSelector string) (bool, error)
}

// Installer installs Cilium and checks its readiness.
type Installer struct {
	cfg           config.CiliumConfig
	controlPlanes int
	charts        ChartInstaller
	cluster       Cluster
	httpClient    *http.Client
	crdURL        string
}

// Option configures an Installer.
type Option func(*Installer)

// WithHTTPClient sets the client used to download the Gateway API CRDs.
func WithHTTPClient(hc *http.Client) Option {
	return func(i *Installer) {
		i.httpClient = hc
	}
}

// WithCRDURL overrides the Gateway API CRD manifest location.
func WithCRDURL(url string) Option {
	return func(i *Installer) {
		i.crdURL = url
	}
}

// NewInstaller creates an Installer. controlPlanes sizes the operator.
func NewInstaller(cfg config.CiliumConfig, controlPlanes int, charts ChartInstaller, cluster Cluster, opts ...Option) *Installer {
	i := &Installer{
		cfg:           cfg,
		controlPlanes: controlPlanes,
		charts:        charts,
		cluster:       cluster,
		httpClient:    &http.Client{Timeout: time.Minute},
		crdURL:        GatewayAPICRDsURL,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Values returns the chart values Install uses.
func (i *Installer) Values() helm.Values {
	return buildValues(i.cfg, i.controlPlanes)
}

// Chart returns the chart Install uses.
func (i *Installer) Chart() helm.ChartSpec {
	return helm.ChartSpec{
		Repository: ChartRepository,
		Name:       ReleaseName,
		Version:    i.cfg.Version,
	}
}

// Install applies the Gateway API CRDs and installs or upgrades the chart.
// It does not wait for the agents; poll Ready for that.
func (i *Installer) Install(ctx context.Context) error {
	crds, err := i.fetch(ctx, i.crdURL)
	if err != nil {
		return fmt.Errorf("failed to download Gateway API CRDs: %w", err)
	}
	if err := i.cluster.ApplyManifests(ctx, crds, FieldManager); err != nil {
		return fmt.Errorf("failed to apply Gateway API CRDs: %w", err)
	}

	if _, err := i.charts.InstallOrUpgrade(ctx, ReleaseName, i.Chart(), i.Values()); err != nil {
		return fmt.Errorf("failed to install cilium %s: %w", i.cfg.Version, err)
	}
	return nil
}

// Ready reports whether every Cilium agent pod is Ready.
func (i *Installer) Ready(ctx context.Context) (bool, error) {
	return i.cluster.PodsReady(ctx, Namespace, PodSelector)
}

// Status returns a one-line summary for status output.
func (i *Installer) Status(ctx context.Context) (string, error) {
	ready, err := i.Ready(ctx)
	if err != nil {
		return "", err
	}
	if ready {
		return fmt.Sprintf("cilium %s: all agents ready", i.cfg.Version), nil
	}
	return fmt.Sprintf("cilium %s: agents not ready", i.cfg.Version), nil
}

func (i *Installer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.Classify(err), "download manifest", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.New(fault.Other, "download manifest", fmt.Sprintf("GET %s: unexpected status %d", url, resp.StatusCode))
	}
	return io.ReadAll(resp.Body)
}
