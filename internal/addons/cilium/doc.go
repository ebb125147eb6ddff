// Package cilium installs the Cilium CNI into a freshly bootstrapped
// cluster and reports its readiness.
//
// Installation applies the Gateway API CRDs first (Cilium's gateway
// controller requires them at start-up) and then installs or upgrades the
// cilium chart in kube-system. Cilium reaches the API server through
// KubePrism on localhost:7445, so it works before kube-proxy exists.
package cilium
