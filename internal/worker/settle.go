package worker

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task is one independent unit of a settle-all fan-out
type Task[T any] func(ctx context.Context) (T, error)

// Outcome is the settled result of a Task. Exactly one of Value/Err is meaningful.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Settle runs every task concurrently and waits for all of them.
// A failing or panicking task never cancels its siblings; its error is
// recorded in the outcome at the same index. limit <= 0 means unbounded.
func Settle[T any](ctx context.Context, limit int, tasks []Task[T]) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, task := range tasks {
		g.Go(func() error {
			outcomes[i] = run(ctx, task)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func run[T any](ctx context.Context, task Task[T]) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[T]{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Outcome[T]{Err: err}
	}
	v, err := task(ctx)
	return Outcome[T]{Value: v, Err: err}
}
