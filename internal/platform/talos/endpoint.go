package talos

import (
	"errors"
	"fmt"

	clientconfig "github.com/siderolabs/talos/pkg/machinery/client/config"
	"github.com/siderolabs/talos/pkg/machinery/config/configpatcher"
	"gopkg.in/yaml.v3"
)

// PatchEndpoint replaces cluster.controlPlane.endpoint in a machine config.
func PatchEndpoint(machineConfig []byte, endpoint string) ([]byte, error) {
	if endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	doc, err := yaml.Marshal(map[string]any{
		"cluster": map[string]any{
			"controlPlane": map[string]any{"endpoint": endpoint},
		},
	})
	if err != nil {
		return nil, err
	}

	patch, err := configpatcher.LoadPatch(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to load endpoint patch: %w", err)
	}

	out, err := configpatcher.Apply(configpatcher.WithBytes(machineConfig), []configpatcher.Patch{patch})
	if err != nil {
		return nil, fmt.Errorf("failed to patch endpoint: %w", err)
	}

	patched, err := out.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to encode patched config: %w", err)
	}
	return stripComments(patched), nil
}

// WithEndpoints points the current talosconfig context at the given control
// plane addresses. The first address becomes the default node.
func WithEndpoints(talosconfig []byte, ips []string) ([]byte, error) {
	if len(ips) == 0 {
		return nil, errors.New("at least one endpoint is required")
	}

	cfg, err := clientconfig.FromString(string(talosconfig))
	if err != nil {
		return nil, fmt.Errorf("failed to parse talosconfig: %w", err)
	}

	ctx, ok := cfg.Contexts[cfg.Context]
	if !ok || ctx == nil {
		return nil, fmt.Errorf("talosconfig has no context %q", cfg.Context)
	}
	ctx.Endpoints = append([]string(nil), ips...)
	ctx.Nodes = []string{ips[0]}

	return cfg.Bytes()
}

// Endpoints returns the endpoints of the current talosconfig context.
func Endpoints(talosconfig []byte) ([]string, error) {
	cfg, err := clientconfig.FromString(string(talosconfig))
	if err != nil {
		return nil, fmt.Errorf("failed to parse talosconfig: %w", err)
	}
	ctx, ok := cfg.Contexts[cfg.Context]
	if !ok || ctx == nil {
		return nil, fmt.Errorf("talosconfig has no context %q", cfg.Context)
	}
	return ctx.Endpoints, nil
}
