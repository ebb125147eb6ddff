package handlers

import (
	"context"
	"io"
	"time"

	"github.com/imamik/oxide/internal/provisioning/status"
)

// Factory function variables for status - can be replaced in tests.
var (
	newStatusProvisioner = func(out io.Writer) Provisioner {
		return status.NewProvisioner(out, nil)
	}
)

// Status handles the status command.
func Status(ctx context.Context, opts *Options, out io.Writer) (err error) {
	start := time.Now()
	defer func() { err = record(opts, "status", start, err) }()

	pCtx, err := newContext(ctx, opts)
	if err != nil {
		return err
	}
	restoreArtifacts(pCtx)
	return newStatusProvisioner(out).Provision(pCtx)
}
