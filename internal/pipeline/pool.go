package pipeline

import "sync"

// runPool fans items out to at most maxWorkers goroutines and delivers every
// result on the returned channel, which is closed once all items are done.
// Workers capture their own failures in the result value, so one failing
// sample never cancels the others.
func runPool[In any, Out any](worker func(In) Out, items []In, maxWorkers int) <-chan Out {
	queue := make(chan In, len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	workers := maxWorkers
	if workers > len(items) {
		workers = len(items)
	}
	if workers < 1 {
		workers = 1
	}

	results := make(chan Out, len(items))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range queue {
				results <- worker(item)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
