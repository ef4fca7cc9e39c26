// Package async runs independent tasks concurrently, all or nothing.
package async

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type Task struct {
	Name    string
	Execute func(ctx context.Context) (any, error)
}

type Result struct {
	Name string
	Data any
}

// Pool bounds how many tasks run at the same time.
type Pool struct {
	workerCount int
}

// NewPool returns a pool running at most workerCount tasks at once. A
// workerCount below 1 means no limit.
func NewPool(workerCount int) *Pool {
	return &Pool{workerCount: workerCount}
}

// Execute runs tasks and returns their results keyed by name. The first
// failing task cancels the context passed to the others and its error is
// returned; no partial results are returned in that case.
func (p *Pool) Execute(ctx context.Context, tasks []Task) (map[string]Result, error) {
	g, gctx := errgroup.WithContext(ctx)
	if p.workerCount > 0 {
		g.SetLimit(p.workerCount)
	}

	out := make([]Result, len(tasks))
	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("task %s: %w", task.Name, err)
			}
			data, err := task.Execute(gctx)
			if err != nil {
				return fmt.Errorf("task %s: %w", task.Name, err)
			}
			out[i] = Result{Name: task.Name, Data: data}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make(map[string]Result, len(out))
	for _, r := range out {
		results[r.Name] = r
	}
	return results, nil
}
