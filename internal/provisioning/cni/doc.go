// Package cni installs the cluster network and waits until the cluster is
// usable: every Cilium agent Ready, then every node Ready.
package cni
