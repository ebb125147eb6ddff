package talos

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imamik/oxide/internal/config"
)

// builtInPatch disables the default CNI and kube-proxy so Cilium can take
// over, and enables KubePrism which Cilium uses to reach the API server.
func builtInPatch(installerImage string) map[string]any {
	return map[string]any{
		"machine": map[string]any{
			"install": map[string]any{
				"disk":  InstallDisk,
				"image": installerImage,
			},
			"features": map[string]any{
				"kubePrism": map[string]any{
					"enabled": true,
					"port":    config.KubePrismPort,
				},
			},
		},
		"cluster": map[string]any{
			"network": map[string]any{
				"cni": map[string]any{"name": "none"},
			},
			"proxy": map[string]any{
				"disabled": true,
			},
		},
	}
}

// applyConfigPatches deep-merges patches, in order, into the v1alpha1
// document of a machine config. Other documents pass through unchanged.
func applyConfigPatches(baseConfig []byte, patches ...map[string]any) ([]byte, error) {
	docs, err := splitDocuments(baseConfig)
	if err != nil {
		return nil, err
	}

	patched := false
	for _, doc := range docs {
		if _, ok := doc["machine"]; !ok {
			continue
		}
		for _, patch := range patches {
			deepMerge(doc, patch)
		}
		patched = true
		break
	}
	if !patched {
		return nil, errors.New("machine config has no v1alpha1 document")
	}

	return joinDocuments(docs)
}

func splitDocuments(data []byte) ([]map[string]any, error) {
	var docs []map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc map[string]any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal base config: %w", err)
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func joinDocuments(docs []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deepMerge recursively merges src into dst.
// For maps, it merges recursively. For other types, src overwrites dst.
func deepMerge(dst, src map[string]any) {
	for key, srcVal := range src {
		if dstVal, exists := dst[key]; exists {
			srcMap, srcIsMap := srcVal.(map[string]any)
			dstMap, dstIsMap := dstVal.(map[string]any)
			if srcIsMap && dstIsMap {
				deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[key] = copyValue(srcVal)
	}
}

// copyValue clones nested maps so later merges never write into a patch.
func copyValue(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = copyValue(val)
	}
	return out
}
