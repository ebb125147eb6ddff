package hcloud

import (
	"errors"
	"fmt"
)

// CleanupError represents accumulated errors from best-effort teardown.
type CleanupError struct {
	Errors []error
}

func (e *CleanupError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("cleanup encountered %d errors: %v", len(e.Errors), errors.Join(e.Errors...))
}

func (e *CleanupError) Unwrap() []error {
	return e.Errors
}

// Add records err if it is non-nil.
func (e *CleanupError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

func (e *CleanupError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors and nil otherwise.
func (e *CleanupError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}
