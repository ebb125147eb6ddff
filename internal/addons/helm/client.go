package helm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"helm.sh/helm/v3/pkg/action"
	"helm.sh/helm/v3/pkg/chart"
	"helm.sh/helm/v3/pkg/chart/loader"
	"helm.sh/helm/v3/pkg/cli"
	"helm.sh/helm/v3/pkg/getter"
	"helm.sh/helm/v3/pkg/release"
	"helm.sh/helm/v3/pkg/repo"
	"helm.sh/helm/v3/pkg/storage/driver"
)

// DefaultTimeout bounds a single install or upgrade request.
const DefaultTimeout = 5 * time.Minute

// ChartSpec identifies a chart in a classic HTTP repository.
type ChartSpec struct {
	Repository string
	Name       string
	Version    string
}

// ChartLoader fetches a chart. The default downloads from the repository.
type ChartLoader func(spec ChartSpec) (*chart.Chart, error)

// Client provides Helm operations using in-memory kubeconfig.
type Client struct {
	namespace    string
	actionConfig *action.Configuration
	loadChart    ChartLoader
}

// Option configures a Client.
type Option func(*Client)

// WithChartLoader replaces chart download (useful for testing).
func WithChartLoader(l ChartLoader) Option {
	return func(c *Client) {
		c.loadChart = l
	}
}

// WithActionConfig replaces the Helm action configuration (useful for testing).
func WithActionConfig(cfg *action.Configuration) Option {
	return func(c *Client) {
		c.actionConfig = cfg
	}
}

// NewClient creates a Helm client from kubeconfig bytes.
func NewClient(kubeconfig []byte, namespace string, opts ...Option) (*Client, error) {
	c := &Client{
		namespace: namespace,
		loadChart: downloadChart,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.actionConfig == nil {
		actionConfig := new(action.Configuration)
		restGetter := NewInMemoryRESTClientGetter(kubeconfig, namespace)
		if err := actionConfig.Init(restGetter, namespace, "secret", func(string, ...any) {}); err != nil {
			return nil, fmt.Errorf("failed to initialize helm action config: %w", err)
		}
		c.actionConfig = actionConfig
	}

	return c, nil
}

// InstallOrUpgrade installs a chart or upgrades the release if it exists.
func (c *Client) InstallOrUpgrade(ctx context.Context, releaseName string, spec ChartSpec, values Values) (*release.Release, error) {
	exists, err := c.ReleaseExists(releaseName)
	if err != nil {
		return nil, err
	}

	ch, err := c.loadChart(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load chart %s: %w", spec.Name, err)
	}

	if !exists {
		install := action.NewInstall(c.actionConfig)
		install.ReleaseName = releaseName
		install.Namespace = c.namespace
		install.Version = spec.Version
		install.Timeout = DefaultTimeout
		rel, err := install.RunWithContext(ctx, ch, values)
		if err != nil {
			return nil, fmt.Errorf("failed to install %s: %w", releaseName, err)
		}
		return rel, nil
	}

	upgrade := action.NewUpgrade(c.actionConfig)
	upgrade.Namespace = c.namespace
	upgrade.Version = spec.Version
	upgrade.Timeout = DefaultTimeout
	upgrade.ReuseValues = false
	rel, err := upgrade.RunWithContext(ctx, releaseName, ch, values)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade %s: %w", releaseName, err)
	}
	return rel, nil
}

// ReleaseExists checks if a release exists.
func (c *Client) ReleaseExists(releaseName string) (bool, error) {
	hist := action.NewHistory(c.actionConfig)
	hist.Max = 1
	_, err := hist.Run(releaseName)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, driver.ErrReleaseNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to read history of %s: %w", releaseName, err)
	}
}

// Status returns the status of the latest release revision.
func (c *Client) Status(releaseName string) (release.Status, error) {
	rel, err := action.NewStatus(c.actionConfig).Run(releaseName)
	if err != nil {
		return release.StatusUnknown, err
	}
	if rel.Info == nil {
		return release.StatusUnknown, nil
	}
	return rel.Info.Status, nil
}

func downloadChart(spec ChartSpec) (*chart.Chart, error) {
	settings := cli.New()

	chartPath, err := repo.FindChartInRepoURL(
		spec.Repository,
		spec.Name,
		spec.Version,
		"", "", "",
		getter.All(settings),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find chart %s in repo %s: %w", spec.Name, spec.Repository, err)
	}
	defer func() {
		_ = os.Remove(chartPath)
	}()

	return loader.Load(chartPath)
}
