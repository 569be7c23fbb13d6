package async

import (
	"context"
	"sync"
)

// Task is one unit of work. Its error is collected, never fatal to
// the batch.
type Task func(ctx context.Context) error

// Result pairs a task's index with its outcome.
type Result struct {
	Index int
	Err   error
}

// Pool runs tasks with bounded concurrency. A failed task does not
// stop the others; the batch only stops early when the context is
// cancelled.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count. Counts below
// one are raised to one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all tasks and returns one Result per task, in
// completion order. When the context is cancelled, unstarted tasks
// report the context error.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	jobs := make(chan int)
	results := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- Result{Index: idx, Err: tasks[idx](ctx)}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range tasks {
			select {
			case jobs <- i:
			case <-ctx.Done():
				results <- Result{Index: i, Err: ctx.Err()}
			}
		}
	}()

	collected := make([]Result, 0, len(tasks))
	for range tasks {
		collected = append(collected, <-results)
	}
	wg.Wait()
	return collected
}

// Errors filters a result set down to the failures.
func Errors(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
