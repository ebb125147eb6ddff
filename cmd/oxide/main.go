// Package main is the entry point for the oxide CLI.
//
// oxide creates, scales, inspects and destroys Kubernetes clusters on
// Hetzner Cloud. Nodes run Talos Linux and the cluster network is Cilium.
//
// Commands: init, create, status, scale, destroy, deploy-nginx, upgrade,
// version.
//
// For detailed usage information, run:
//
//	oxide --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/oxide/cmd/oxide/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
