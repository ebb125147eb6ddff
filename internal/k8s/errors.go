package k8s

import (
	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/imamik/oxide/internal/fault"
)

func kindOf(err error) fault.Kind {
	switch {
	case apierrors.IsNotFound(err):
		return fault.NotFound
	case apierrors.IsAlreadyExists(err), apierrors.IsConflict(err):
		return fault.Conflict
	case apierrors.IsServerTimeout(err), apierrors.IsTooManyRequests(err), apierrors.IsServiceUnavailable(err):
		return fault.Busy
	default:
		return fault.Classify(err)
	}
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	return fault.Wrap(kindOf(err), op, err)
}
