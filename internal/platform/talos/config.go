package talos

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/siderolabs/talos/pkg/machinery/config"
	"github.com/siderolabs/talos/pkg/machinery/config/generate"
	"github.com/siderolabs/talos/pkg/machinery/config/generate/secrets"
	"github.com/siderolabs/talos/pkg/machinery/config/machine"
	"gopkg.in/yaml.v3"

	"github.com/imamik/oxide/internal/artifacts"
	"github.com/imamik/oxide/internal/fault"
)

// SecretsBundle is a type alias for the Talos secrets bundle.
type SecretsBundle = secrets.Bundle

// InstallDisk is the system disk of every Hetzner Cloud server.
const InstallDisk = "/dev/sda"

// Generator handles Talos configuration generation.
type Generator struct {
	clusterName       string
	kubernetesVersion string
	talosVersion      string
	endpoint          string
	secretsBundle     *secrets.Bundle
	patches           []map[string]any
}

// Artifacts are the generated role configs and the client config.
type Artifacts struct {
	ControlPlane []byte
	Worker       []byte
	Talosconfig  []byte
}

// NewGenerator creates a new Generator.
func NewGenerator(clusterName, kubernetesVersion, talosVersion, endpoint string, sb *secrets.Bundle) *Generator {
	// Talos machinery adds the 'v' prefix itself.
	kubernetesVersion = strings.TrimPrefix(kubernetesVersion, "v")
	if !strings.HasPrefix(talosVersion, "v") {
		talosVersion = "v" + talosVersion
	}

	return &Generator{
		clusterName:       clusterName,
		kubernetesVersion: kubernetesVersion,
		talosVersion:      talosVersion,
		endpoint:          endpoint,
		secretsBundle:     sb,
	}
}

// WithPatches sets user patches that are deep-merged after the built-in ones.
func (g *Generator) WithPatches(patches []map[string]any) *Generator {
	g.patches = patches
	return g
}

// Generate produces both role configs and the talosconfig.
func (g *Generator) Generate() (*Artifacts, error) {
	cp, err := g.GenerateControlPlaneConfig()
	if err != nil {
		return nil, err
	}
	worker, err := g.GenerateWorkerConfig()
	if err != nil {
		return nil, err
	}
	talosconfig, err := g.GetClientConfig()
	if err != nil {
		return nil, err
	}
	return &Artifacts{ControlPlane: cp, Worker: worker, Talosconfig: talosconfig}, nil
}

// GenerateControlPlaneConfig generates the configuration for a control plane node.
func (g *Generator) GenerateControlPlaneConfig() ([]byte, error) {
	return g.generate(machine.TypeControlPlane)
}

// GenerateWorkerConfig generates the configuration for a worker node.
func (g *Generator) GenerateWorkerConfig() ([]byte, error) {
	return g.generate(machine.TypeWorker)
}

func (g *Generator) generate(machineType machine.Type) ([]byte, error) {
	baseConfig, err := g.generateBaseConfig(machineType)
	if err != nil {
		return nil, err
	}

	patches := append([]map[string]any{builtInPatch(g.installerImage())}, g.patches...)
	return applyConfigPatches(baseConfig, patches...)
}

// generateBaseConfig generates the base Talos config without custom patches.
func (g *Generator) generateBaseConfig(machineType machine.Type) ([]byte, error) {
	input, err := g.input(generate.WithInstallDisk(InstallDisk))
	if err != nil {
		return nil, err
	}

	cfg, err := input.Config(machineType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s config: %w", machineType, err)
	}

	bytes, err := cfg.Bytes()
	if err != nil {
		return nil, err
	}

	return stripComments(bytes), nil
}

// GetClientConfig returns the talosconfig for the cluster.
func (g *Generator) GetClientConfig() ([]byte, error) {
	input, err := g.input()
	if err != nil {
		return nil, err
	}

	clientCfg, err := input.Talosconfig()
	if err != nil {
		return nil, fmt.Errorf("failed to generate talosconfig: %w", err)
	}

	return clientCfg.Bytes()
}

func (g *Generator) input(extra ...generate.Option) (*generate.Input, error) {
	if g.secretsBundle == nil {
		return nil, errors.New("secrets bundle is required")
	}

	vc, err := config.ParseContractFromVersion(g.talosVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to parse version contract: %w", err)
	}

	opts := append([]generate.Option{
		generate.WithVersionContract(vc),
		generate.WithSecretsBundle(g.secretsBundle),
	}, extra...)

	input, err := generate.NewInput(g.clusterName, g.endpoint, g.kubernetesVersion, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create input: %w", err)
	}
	return input, nil
}

func (g *Generator) installerImage() string {
	return fmt.Sprintf("ghcr.io/siderolabs/installer:%s", g.talosVersion)
}

// NewSecrets creates a new Talos secrets bundle.
func NewSecrets(talosVersion string) (*secrets.Bundle, error) {
	if !strings.HasPrefix(talosVersion, "v") {
		talosVersion = "v" + talosVersion
	}
	vc, err := config.ParseContractFromVersion(talosVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to parse version contract: %w", err)
	}

	sb, err := secrets.NewBundle(secrets.NewFixedClock(time.Now()), vc)
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets bundle: %w", err)
	}

	return sb, nil
}

// ParseSecrets decodes a secrets bundle saved by MarshalSecrets.
func ParseSecrets(data []byte) (*secrets.Bundle, error) {
	var sb secrets.Bundle
	if err := yaml.Unmarshal(data, &sb); err != nil {
		return nil, fmt.Errorf("failed to load secrets bundle: %w", err)
	}
	if sb.Cluster == nil || sb.Certs == nil {
		return nil, errors.New("secrets bundle is incomplete")
	}

	sb.Clock = secrets.NewFixedClock(time.Now())
	return &sb, nil
}

// MarshalSecrets encodes a secrets bundle in the format talosctl reads.
func MarshalSecrets(sb *secrets.Bundle) ([]byte, error) {
	data, err := yaml.Marshal(sb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal secrets bundle: %w", err)
	}
	return data, nil
}

// GetOrGenerateSecrets reuses secrets.yaml from the repository, or generates
// and saves a new bundle when it does not exist. Reuse keeps regenerated
// configs compatible with an existing cluster.
func GetOrGenerateSecrets(repo artifacts.Repository, talosVersion string) (*SecretsBundle, bool, error) {
	data, err := repo.Read(artifacts.Secrets)
	switch {
	case err == nil:
		sb, err := ParseSecrets(data)
		return sb, true, err
	case !fault.IsNotFound(err):
		return nil, false, err
	}

	sb, err := NewSecrets(talosVersion)
	if err != nil {
		return nil, false, err
	}
	data, err = MarshalSecrets(sb)
	if err != nil {
		return nil, false, err
	}
	if err := repo.Write(artifacts.Secrets, data, artifacts.SecretPerm); err != nil {
		return nil, false, fmt.Errorf("failed to write secrets file: %w", err)
	}

	return sb, false, nil
}

func stripComments(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	var result []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		result = append(result, line)
	}
	return []byte(strings.Join(result, "\n"))
}
