// Package cluster turns freshly created servers into a running Kubernetes
// cluster.
//
// Two phases live here. The config phase generates the Talos machine
// configs before any server exists, for a provisional endpoint. The
// cluster phase runs after compute: it points the configs at the first
// control plane, bootstraps etcd, waits for the API server and fetches
// the admin kubeconfig.
package cluster
