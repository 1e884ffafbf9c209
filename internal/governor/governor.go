// This file implements the permit pool that bounds how many pipeline
// invocations run at once, and the chunked batch admission used for large
// submissions (e.g. a directory import).

package governor

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Task is a unit of governed work.
type Task func(ctx context.Context) error

// Governor bounds the number of simultaneously in-flight tasks with a
// counting semaphore. Acquisition waits are cancellable and a held permit is
// always released, on success, error or panic.
type Governor struct {
	sem    *semaphore.Weighted
	max    int
	active int64
}

// New creates a Governor with the given permit count. A non-positive value
// falls back to the number of CPUs.
func New(maxConcurrency int) *Governor {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	return &Governor{
		sem: semaphore.NewWeighted(int64(maxConcurrency)),
		max: maxConcurrency,
	}
}

// MaxConcurrency returns the permit count.
func (g *Governor) MaxConcurrency() int { return g.max }

// Active returns how many tasks currently hold a permit.
func (g *Governor) Active() int { return int(atomic.LoadInt64(&g.active)) }

// Run executes task after acquiring a permit, and releases the permit on
// every exit path. Waiting for a permit is interrupted by ctx cancellation.
func (g *Governor) Run(ctx context.Context, task Task) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("waiting for permit: %w", err)
	}
	atomic.AddInt64(&g.active, 1)
	defer func() {
		atomic.AddInt64(&g.active, -1)
		g.sem.Release(1)
	}()
	return task(ctx)
}

// RunBatch executes one task per input index under the shared permit pool.
// Inputs are admitted in chunks so an arbitrarily large batch never creates
// an unbounded number of pending goroutines; the next chunk starts only once
// the previous one has fully drained. Per-item errors are collected, not
// short-circuited: a bad file must not sink the rest of the batch.
func (g *Governor) RunBatch(ctx context.Context, n int, task func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	chunk := g.max * 2
	if chunk < 1 {
		chunk = 1
	}

	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}

		eg, egCtx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			eg.Go(func() error {
				errs[i] = g.Run(egCtx, func(taskCtx context.Context) error {
					return task(taskCtx, i)
				})
				// Always return nil: errgroup's short-circuit would cancel
				// sibling items, and batch items fail independently.
				return nil
			})
		}
		_ = eg.Wait()

		if err := ctx.Err(); err != nil {
			for i := end; i < n; i++ {
				errs[i] = err
			}
			break
		}
	}
	return errs
}
