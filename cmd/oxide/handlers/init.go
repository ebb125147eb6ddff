package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/imamik/oxide/internal/config"
	"github.com/imamik/oxide/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// isInteractive reports whether stdin and stdout are terminals.
	isInteractive = func() bool {
		return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
	}

	// runWizard asks the configuration questions.
	runWizard = func(ctx context.Context, advanced bool) (*config.ClusterConfig, error) {
		result, err := wizard.RunWizard(ctx, advanced)
		if err != nil {
			return nil, err
		}
		return wizard.BuildConfig(result), nil
	}

	// writeConfig writes the config to a file.
	writeConfig = config.Save
)

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Init writes a new cluster configuration to path. It never overwrites an
// existing file.
func Init(ctx context.Context, path string, interactive, advanced bool) error {
	if fileExists(path) {
		return fmt.Errorf("config file %s already exists", path)
	}

	cfg := config.Example()
	if interactive {
		if !isInteractive() {
			return fmt.Errorf("--interactive requires a terminal")
		}
		var err error
		if cfg, err = runWizard(ctx, advanced); err != nil {
			return fmt.Errorf("wizard canceled: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := writeConfig(path, cfg); err != nil {
		return err
	}

	printInitSuccess(path, cfg)
	return nil
}

func printInitSuccess(path string, cfg *config.ClusterConfig) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", path)
	fmt.Println()
	fmt.Println("Cluster Summary")
	fmt.Println("---------------")
	fmt.Printf("  Name:     %s\n", cfg.ClusterName)
	fmt.Printf("  Location: %s\n", cfg.HCloud.Location)
	for _, p := range cfg.ControlPlanes {
		fmt.Printf("  Control planes (%s): %d x %s\n", p.Name, p.Count, p.ServerType)
	}
	for _, p := range cfg.Workers {
		fmt.Printf("  Workers (%s):        %d x %s\n", p.Name, p.Count, p.ServerType)
	}
	fmt.Printf("  Talos:    %s, Kubernetes %s\n", cfg.Talos.Version, cfg.Talos.KubernetesVersion)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set talos.hcloud_snapshot_id to a Talos snapshot in your project")
	fmt.Printf("  2. export %s=<your token>\n", config.TokenEnvVar)
	fmt.Printf("  3. oxide create -c %s\n", path)
	fmt.Println()
}
