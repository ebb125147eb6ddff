package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/oxide/internal/fault"
	"github.com/imamik/oxide/internal/util/poll"
)

// AwaitAction polls an action until it succeeds or fails. A failed action
// is returned as an error carrying the action's error code and message.
func (c *RealClient) AwaitAction(ctx context.Context, action *hcloud.Action) error {
	if action == nil {
		return nil
	}
	return c.awaitAction(ctx, action, poll.WithQuiet())
}

func (c *RealClient) awaitAction(ctx context.Context, action *hcloud.Action, opts ...poll.Option) error {
	desc := fmt.Sprintf("Waiting for action %d (%s)", action.ID, action.Command)
	return poll.UntilTrue(ctx, desc, c.timeouts.Action.Interval, c.timeouts.Action.Timeout,
		func(ctx context.Context) (bool, error) {
			current, _, err := c.client.Action.GetByID(ctx, action.ID)
			if err != nil {
				return false, classify("get action", err)
			}
			if current == nil {
				return false, fault.New(fault.NotFound, "get action", fmt.Sprintf("action %d not found", action.ID))
			}
			switch current.Status {
			case hcloud.ActionStatusSuccess:
				return true, nil
			case hcloud.ActionStatusError:
				return false, fault.Wrap(fault.Other, "action "+current.Command, current.Error())
			default:
				return false, nil
			}
		}, opts...)
}

// awaitActions waits for each action in turn.
func (c *RealClient) awaitActions(ctx context.Context, actions ...*hcloud.Action) error {
	for _, a := range actions {
		if err := c.AwaitAction(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
