package handlers

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/k8s"
)

// Manifests applied by deploy-nginx, read from the working directory.
var nginxManifests = []string{"nginx-deployment.yaml", "nginx-gateway.yaml"}

const fieldManager = "oxide"

// ManifestApplier applies multi-document YAML - matches k8s.Client.
type ManifestApplier interface {
	ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error
}

// Factory function variables for deploy-nginx - can be replaced in tests.
var (
	newManifestApplier = func(kubeconfig []byte) (ManifestApplier, error) {
		return k8s.NewFromKubeconfig(kubeconfig)
	}

	readFile = os.ReadFile
)

// DeployNginx handles the deploy-nginx command. It only needs the
// kubeconfig artifact; the cluster config is not read.
func DeployNginx(ctx context.Context, opts *Options) (err error) {
	start := time.Now()
	defer func() { err = record(opts, "deploy-nginx", start, err) }()

	repo := artifacts.NewFileStore(opts.OutputDir)
	kubeconfig, err := repo.Read(artifacts.Kubeconfig)
	if err != nil {
		return fmt.Errorf("kubeconfig not found in %s, create the cluster first: %w", opts.OutputDir, err)
	}

	applier, err := newManifestApplier(kubeconfig)
	if err != nil {
		return err
	}

	for _, name := range nginxManifests {
		data, err := readFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if err := applier.ApplyManifests(ctx, data, fieldManager); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
		log.Printf("Applied %s", name)
	}
	return nil
}
