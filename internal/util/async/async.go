// Package async provides structured fan-out/fan-in for independent tasks.
//
// Every task runs to completion; failures are collected per task and
// returned together, so an operator sees every server that failed to
// create rather than only the first one.
package async

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them.
// The returned error joins the failure of every task, each prefixed with
// the task name; it is nil when all tasks succeed.
//
// Example:
//
//	tasks := []async.Task{
//	    {Name: "firewall", Func: p.ensureFirewall},
//	    {Name: "network", Func: p.ensureNetwork},
//	}
//	if err := async.RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))

	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			if err := task.Func(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Map applies fn to every item concurrently and returns the results in
// input order. Results of failed items are the zero value; the error joins
// all failures, each prefixed with name(item).
func Map[T, R any](ctx context.Context, items []T, name func(T) string, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			res, err := fn(ctx, item)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", name(item), err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}
