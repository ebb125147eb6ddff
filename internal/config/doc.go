// Package config defines the cluster specification read from cluster.yaml.
//
// The [ClusterConfig] struct describes the desired topology: control plane
// and worker node pools, the Hetzner Cloud network, Talos and Kubernetes
// versions, and Cilium settings. It is loaded once per invocation and is
// read-only afterwards. Credentials are resolved separately into
// [Credentials] so that no component reads the environment itself.
package config
