package hcloud

import (
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/fault"
	"github.com/imamik/oxide/internal/metrics"
)

// kindOf maps an API error code to a fault kind. Transport errors fall
// through to fault.Classify.
func kindOf(err error) fault.Kind {
	switch {
	case hcloud.IsError(err, hcloud.ErrorCodeNotFound):
		return fault.NotFound
	case hcloud.IsError(err, hcloud.ErrorCodeUniquenessError, hcloud.ErrorCodeConflict):
		return fault.Conflict
	case hcloud.IsError(err,
		hcloud.ErrorCodeResourceInUse,
		hcloud.ErrorCodeLocked,
		hcloud.ErrorCodeResourceLocked,
		hcloud.ErrorCodeResourceUnavailable,
		hcloud.ErrorCodeRateLimitExceeded):
		return fault.Busy
	default:
		return fault.Classify(err)
	}
}

// classify records the API call and wraps err with its fault kind.
func classify(op string, err error) error {
	metrics.RecordHCloudAPICall(op, err)
	if err == nil {
		return nil
	}
	return fault.Wrap(kindOf(err), op, err)
}
