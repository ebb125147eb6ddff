package handlers

import (
	"context"
	"errors"
)

// ErrUpgradeNotImplemented is returned by the upgrade command.
var ErrUpgradeNotImplemented = errors.New("cluster upgrade is not yet implemented")

// Upgrade handles the upgrade command.
func Upgrade(context.Context, *Options) error {
	return ErrUpgradeNotImplemented
}
