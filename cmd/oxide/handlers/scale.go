package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/oxide/internal/provisioning"
	"github.com/imamik/oxide/internal/provisioning/scale"
)

// Scaler runs a scale request - matches scale.Scaler.
type Scaler interface {
	Run(ctx *provisioning.Context, req scale.Request) error
}

// Factory function variables for scale - can be replaced in tests.
var (
	newScaler = func() Scaler {
		return scale.NewScaler()
	}
)

// Scale handles the scale command. count is the target size of the pool.
func Scale(ctx context.Context, opts *Options, roleArg, pool string, count int) (err error) {
	start := time.Now()
	defer func() { err = record(opts, "scale", start, err) }()

	role, err := provisioning.ParseRole(roleArg)
	if err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("--count must not be negative, got %d", count)
	}

	pCtx, err := newContext(ctx, opts)
	if err != nil {
		return err
	}
	restoreArtifacts(pCtx)

	req := scale.Request{Role: role, Pool: pool, Count: count}
	if err := newScaler().Run(pCtx, req); err != nil {
		return fmt.Errorf("scale failed: %w", err)
	}
	return nil
}
