package filter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Runner serializes batch runs over filters shared between callers.
//
// Rules keep their prepared state (reference count, handle maps) on the rule
// instance, so two passes over the same rule must not overlap. Every caller
// evaluating filters taken from one Library must go through the same Runner.
type Runner struct {
	sem *semaphore.Weighted
}

// NewRunner creates a runner that admits one batch run at a time.
func NewRunner() *Runner {
	return &Runner{sem: semaphore.NewWeighted(1)}
}

// Run waits for the running batch to finish, then calls fn.
// It gives up with ctx.Err() when ctx is done before its turn comes.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.sem.Release(1)
	return fn(ctx)
}
