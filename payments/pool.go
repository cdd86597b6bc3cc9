package payments

import (
	"context"
	"sync"
)

// forEach runs fn over items with at most workers in flight.
//
// Once ctx is done no new item is started; the unstarted items are
// returned. Items already running get a context detached from ctx's
// cancellation so they finish their read-compute-write cycle.
func forEach[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T)) (skipped []T) {
	if workers < 1 {
		workers = 1
	}
	detached := context.WithoutCancel(ctx)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, item := range items {
		select {
		case <-ctx.Done():
			skipped = append(skipped, items[i:]...)
		case sem <- struct{}{}:
			// select picks randomly when both are ready
			if ctx.Err() != nil {
				<-sem
				skipped = append(skipped, items[i:]...)
				break
			}
			wg.Add(1)
			go func(item T) {
				defer wg.Done()
				defer func() { <-sem }()
				fn(detached, item)
			}(item)
			continue
		}
		break
	}

	wg.Wait()
	return skipped
}
