// Package worker provides a small bounded pool for running independent
// tasks concurrently while keeping results in submission order.
package worker

import (
	"context"
	"sync"
)

// Result is the outcome of processing one item. Index refers back to the
// item's position in the input slice.
type Result[O any] struct {
	Index int
	Value O
	Err   error
}

// ProcessFunc processes a single item.
type ProcessFunc[I, O any] func(ctx context.Context, index int, item I) (O, error)

// ProgressFunc is called after each item completes.
type ProgressFunc func(completed, total int)

// Map processes items with at most workers goroutines and returns one
// result per item, ordered by input index. Failures are recorded per item;
// one item failing never stops the others. A canceled context marks all
// unstarted items with ctx.Err().
func Map[I, O any](ctx context.Context, items []I, workers int, process ProcessFunc[I, O], onProgress ProgressFunc) []Result[O] {
	results := make([]Result[O], len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	indexes := make(chan int)
	done := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				select {
				case <-ctx.Done():
					results[i] = Result[O]{Index: i, Err: ctx.Err()}
				default:
					value, err := process(ctx, i, items[i])
					results[i] = Result[O]{Index: i, Value: value, Err: err}
				}
				done <- i
			}
		}()
	}

	go func() {
		for i := range items {
			indexes <- i
		}
		close(indexes)
		wg.Wait()
		close(done)
	}()

	completed := 0
	for range done {
		completed++
		if onProgress != nil {
			onProgress(completed, len(items))
		}
	}

	return results
}

// Errors collects the non-nil errors from a result slice.
func Errors[O any](results []Result[O]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
