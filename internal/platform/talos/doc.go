// Package talos generates Talos Linux machine configurations and talks to
// the Talos API of running nodes.
//
// The Generator produces control plane and worker configs with the built-in
// patches every cluster needs (no CNI, no kube-proxy, KubePrism on the
// local port Cilium uses) followed by user supplied patches. RealClient
// wraps the machinery client for the handful of calls the orchestrator
// makes: version, apply, bootstrap, kubeconfig and reset.
package talos
