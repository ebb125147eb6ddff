package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/fault"
)

// CreateResult wraps the result of a resource creation operation.
// It handles both single and multiple actions that may need to be awaited.
type CreateResult[T any] struct {
	Resource T
	Action   *hcloud.Action
	Actions  []*hcloud.Action
}

// DeleteOperation encapsulates idempotent deletion of a named resource.
type DeleteOperation[T any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name
	Get func(ctx context.Context, name string) (T, *hcloud.Response, error)

	// Delete removes the resource
	Delete func(ctx context.Context, resource T) (*hcloud.Response, error)
}

// Execute deletes the resource. It succeeds if the resource doesn't exist,
// including when it disappears between the lookup and the delete.
func (op *DeleteOperation[T]) Execute(ctx context.Context) error {
	resource, _, err := op.Get(ctx, op.Name)
	if err != nil {
		return classify("get "+op.ResourceType, err)
	}
	if isNil(resource) {
		return nil
	}

	_, err = op.Delete(ctx, resource)
	if err = classify("delete "+op.ResourceType, err); err != nil {
		if fault.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to delete %s %s: %w", op.ResourceType, op.Name, err)
	}
	return nil
}

// EnsureOperation encapsulates get-or-create logic for any named resource.
// It supports optional update and validation logic for existing resources.
//
// Ensure with validation:
//
//	EnsureOperation{
//	    // ... other fields
//	    Validate: func(network *hcloud.Network) error {
//	        if network.IPRange.String() != ipRange {
//	            return fmt.Errorf("network exists with different IP range")
//	        }
//	        return nil
//	    },
//	}
//
// Ensure with update:
//
//	EnsureOperation{
//	    // ... other fields
//	    Update: func(ctx context.Context, fw *hcloud.Firewall, opts hcloud.FirewallSetRulesOpts) ([]*hcloud.Action, *hcloud.Response, error) {
//	        return c.client.Firewall.SetRules(ctx, fw, opts)
//	    },
//	    UpdateOptsMapper: func(fw *hcloud.Firewall) hcloud.FirewallSetRulesOpts {
//	        return hcloud.FirewallSetRulesOpts{Rules: rules}
//	    },
//	}
type EnsureOperation[T any, CreateOpts any, UpdateOpts any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by name
	Get func(ctx context.Context, name string) (T, *hcloud.Response, error)

	// Create creates the resource with the given options
	Create func(ctx context.Context, opts CreateOpts) (*CreateResult[T], *hcloud.Response, error)

	// Update updates the resource if it exists (optional)
	Update func(ctx context.Context, resource T, opts UpdateOpts) ([]*hcloud.Action, *hcloud.Response, error)

	// Validate checks if existing resource matches desired state (optional)
	Validate func(resource T) error

	// CreateOptsMapper maps input parameters to create options
	CreateOptsMapper func() CreateOpts

	// UpdateOptsMapper maps input parameters to update options (required if Update is provided)
	UpdateOptsMapper func(resource T) UpdateOpts
}

// Execute gets the existing resource, updates or validates it, or creates
// a new one. created reports whether this call created the resource.
func (op *EnsureOperation[T, CreateOpts, UpdateOpts]) Execute(ctx context.Context, c *RealClient) (resource T, created bool, err error) {
	var zero T

	resource, err = op.get(ctx)
	if err != nil {
		return zero, false, err
	}

	if isNil(resource) {
		result, _, err := op.Create(ctx, op.CreateOptsMapper())
		if err = classify("create "+op.ResourceType, err); err != nil {
			if !fault.IsConflict(err) {
				return zero, false, fmt.Errorf("failed to create %s %s: %w", op.ResourceType, op.Name, err)
			}
			// Another invocation created it first.
			resource, err = op.get(ctx)
			if err != nil {
				return zero, false, err
			}
			if isNil(resource) {
				return zero, false, fault.New(fault.Conflict, "create "+op.ResourceType, op.Name+" conflicts with a resource that cannot be found")
			}
		} else {
			actions := result.Actions
			if result.Action != nil {
				actions = append([]*hcloud.Action{result.Action}, actions...)
			}
			if err := c.awaitActions(ctx, actions...); err != nil {
				return zero, false, fmt.Errorf("failed to wait for %s creation: %w", op.ResourceType, err)
			}
			return result.Resource, true, nil
		}
	}

	if op.Validate != nil {
		if err := op.Validate(resource); err != nil {
			return zero, false, err
		}
	}

	if op.Update != nil && op.UpdateOptsMapper != nil {
		actions, _, err := op.Update(ctx, resource, op.UpdateOptsMapper(resource))
		if err = classify("update "+op.ResourceType, err); err != nil {
			return zero, false, fmt.Errorf("failed to update %s %s: %w", op.ResourceType, op.Name, err)
		}
		if err := c.awaitActions(ctx, actions...); err != nil {
			return zero, false, fmt.Errorf("failed to wait for %s update: %w", op.ResourceType, err)
		}
	}

	return resource, false, nil
}

func (op *EnsureOperation[T, CreateOpts, UpdateOpts]) get(ctx context.Context) (T, error) {
	resource, _, err := op.Get(ctx, op.Name)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get %s %s: %w", op.ResourceType, op.Name, classify("get "+op.ResourceType, err))
	}
	return resource, nil
}

// simpleCreate wraps create functions returning the resource directly.
func simpleCreate[T any, Opts any](
	createFn func(context.Context, Opts) (T, *hcloud.Response, error),
) func(context.Context, Opts) (*CreateResult[T], *hcloud.Response, error) {
	return func(ctx context.Context, opts Opts) (*CreateResult[T], *hcloud.Response, error) {
		resource, resp, err := createFn(ctx, opts)
		if err != nil {
			return nil, resp, err
		}
		return &CreateResult[T]{Resource: resource}, resp, nil
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
