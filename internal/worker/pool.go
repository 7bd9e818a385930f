package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// indexed tags a result with the position of the job that produced it
type indexed struct {
	pos    int
	result Result
}

// Pool runs jobs on a fixed number of goroutines
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Workers returns the configured worker count
func (p *Pool) Workers() int {
	return p.workers
}

// Run executes every job and returns their results in submission order.
// Jobs not started before ctx is cancelled are reported by a Result
// carrying ctx.Err().
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	queue := make(chan int, len(jobs))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	out := make(chan indexed, len(jobs))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range queue {
				if err := ctx.Err(); err != nil {
					out <- indexed{pos: pos, result: cancelled{err: err}}
					continue
				}
				out <- indexed{pos: pos, result: jobs[pos].Execute(ctx)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	for r := range out {
		results[r.pos] = r.result
	}
	return results
}

// FirstError returns the first non-nil error among results
func FirstError(results []Result) error {
	for _, r := range results {
		if r == nil {
			continue
		}
		if err := r.GetError(); err != nil {
			return err
		}
	}
	return nil
}

type cancelled struct {
	err error
}

func (c cancelled) GetError() error {
	return c.err
}
