package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads, defaults and validates the cluster specification.
func LoadFile(path string) (*ClusterConfig, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found, run 'oxide init' to create one", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a cluster specification.
func Parse(data []byte) (*ClusterConfig, error) {
	var cfg ClusterConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills absent fields.
func (c *ClusterConfig) ApplyDefaults() {
	if c.HCloud.Location == "" {
		c.HCloud.Location = DefaultLocation
	}
	if c.HCloud.Network.CIDR == "" {
		c.HCloud.Network.CIDR = DefaultNetworkCIDR
	}
	if c.HCloud.Network.SubnetCIDR == "" {
		c.HCloud.Network.SubnetCIDR = DefaultSubnetCIDR
	}
	if c.HCloud.Network.Zone == "" {
		c.HCloud.Network.Zone = DefaultNetworkZone
	}
	if c.Talos.Version == "" {
		c.Talos.Version = DefaultTalosVersion
	}
	if c.Talos.KubernetesVersion == "" {
		c.Talos.KubernetesVersion = DefaultKubernetesVersion
	}
	if c.Cilium.Version == "" {
		c.Cilium.Version = DefaultCiliumVersion
	}
}

// Save writes the configuration as YAML with owner-only permissions,
// since it may contain the API token.
func Save(path string, cfg *ClusterConfig) error {
	data, err := MarshalDocument(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ResolveCredentials returns the API token from the config file, or from
// getenv(TokenEnvVar) when the file has none.
func ResolveCredentials(cfg *ClusterConfig, getenv func(string) string) (Credentials, error) {
	token := cfg.HCloud.Token
	if token == "" {
		token = getenv(TokenEnvVar)
	}
	if token == "" {
		return Credentials{}, fmt.Errorf("hcloud token not set: add hcloud.token to the config or export %s", TokenEnvVar)
	}
	return Credentials{HCloudToken: token}, nil
}
