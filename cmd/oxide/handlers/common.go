package handlers

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/metrics"
	hcloud_internal "github.com/imamik/oxide/internal/platform/hcloud"
	"github.com/imamik/oxide/internal/platform/s3"
	"github.com/imamik/oxide/internal/provisioning"
)

const (
	DefaultConfigPath = "cluster.yaml"
	DefaultOutputDir  = "./output"
)

// Options are the global flags.
type Options struct {
	ConfigPath  string
	OutputDir   string
	Verbose     bool
	MetricsFile string
}

// Provisioner interface for testing - matches provisioning.Phase.
type Provisioner interface {
	Provision(ctx *provisioning.Context) error
}

// Factory function variables shared by all handlers - can be replaced in tests.
var (
	// loadConfig reads and validates the cluster configuration.
	loadConfig = config.LoadFile

	// getenv resolves the token fallback.
	getenv = os.Getenv

	// newInfraClient creates the Hetzner Cloud client.
	newInfraClient = func(token string, timeouts *config.Timeouts) hcloud_internal.InfrastructureManager {
		return hcloud_internal.NewRealClient(token, hcloud_internal.WithTimeouts(timeouts))
	}

	// newObjectStore connects to the artifact bucket.
	newObjectStore = func(ctx context.Context, cfg *config.S3Config) (artifacts.ObjectStore, error) {
		return s3.NewClient(ctx, s3.Options{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		})
	}
)

// newContext loads the configuration and builds the provisioning context
// every cloud-facing command runs with.
func newContext(ctx context.Context, opts *Options) (*provisioning.Context, error) {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	creds, err := config.ResolveCredentials(cfg, getenv)
	if err != nil {
		return nil, err
	}

	timeouts := config.LoadTimeouts()
	infra := newInfraClient(creds.HCloudToken, timeouts)
	repo := artifacts.NewFileStore(opts.OutputDir)

	pCtx := provisioning.NewContext(ctx, cfg, infra, repo, provisioning.NewConsoleObserver(opts.Verbose))
	pCtx.Timeouts = timeouts
	return pCtx, nil
}

// newMirror returns the artifact mirror, or nil when none is configured.
func newMirror(ctx context.Context, cfg *config.ClusterConfig) (*artifacts.Mirror, error) {
	if cfg.Artifacts.S3 == nil {
		return nil, nil
	}
	store, err := newObjectStore(ctx, cfg.Artifacts.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to artifact bucket: %w", err)
	}
	return artifacts.NewMirror(store, cfg.ClusterName), nil
}

// restoreArtifacts fetches mirrored artifacts missing from the output
// directory. Failures are warnings: the local copy may be complete.
func restoreArtifacts(pCtx *provisioning.Context) {
	mirror, err := newMirror(pCtx, pCtx.Config)
	if err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	if mirror == nil {
		return
	}
	if _, err := mirror.Restore(pCtx, pCtx.Artifacts); err != nil {
		log.Printf("Warning: failed to restore artifacts: %v", err)
	}
}

// record finishes an operation: it counts it and, if requested, writes the
// metrics textfile. The operation's error is returned unchanged.
func record(opts *Options, operation string, start time.Time, err error) error {
	metrics.RecordOperation(operation, err, time.Since(start))
	if opts.MetricsFile != "" {
		if werr := metrics.WriteTextfile(opts.MetricsFile); werr != nil {
			log.Printf("Warning: failed to write metrics: %v", werr)
		}
	}
	return err
}
