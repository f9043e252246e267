package contour

import (
	"context"
	"fmt"
)

// withBudget runs fn on its own goroutine and gives up when ctx is done.
// A panic inside fn is returned as an error. The goroutine is left to finish
// on its own after a timeout; strategies poll ctx so it does not run long.
func withBudget[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				var zero T
				done <- outcome{val: zero, err: fmt.Errorf("strategy panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{val: v, err: err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	}
}
