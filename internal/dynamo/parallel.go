package dynamo

import (
	"runtime"
	"sync"
)

// ParallelFor executes fn over contiguous chunks of [0, n) in parallel.
// Chunks are never smaller than minChunk; small ranges run inline. The
// returned error is the one from the lowest failing chunk, so the result
// does not depend on scheduling.
func ParallelFor(n, minChunk int, fn func(start, end int) error) error {
	numWorkers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || numWorkers <= 1 {
		return fn(0, n)
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(idx, s, e int) {
			defer wg.Done()
			errs[idx] = fn(s, e)
		}(w, start, end)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
