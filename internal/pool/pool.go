// Package pool runs independent work items with a bounded number in flight.
//
// Admission control only: item N+limit is not started until one of the first
// N completes, regardless of whether it succeeded. There is no queue priority
// and no cancellation of items already running.
package pool

import (
	"context"
	"sync"
)

// Run invokes work(ctx, i) for every i in [0, n), with at most limit calls
// concurrently in flight. It returns once all started items have completed.
//
// Failures are the work func's business: it has no error return, so a failed
// item simply contributes nothing and never affects its siblings. If ctx is
// cancelled, items not yet admitted are skipped, in-flight items are waited
// for, and ctx.Err() is returned.
func Run(ctx context.Context, n, limit int, work func(ctx context.Context, i int)) error {
	if limit <= 0 {
		limit = 1
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			work(ctx, i)
		}(i)
	}

	wg.Wait()
	return nil
}
