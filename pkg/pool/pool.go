package pool

import "sync"

// Pool runs tasks with a fixed upper bound on parallelism. Both the diff and
// the trigger phase of a run share one pool so a run never exceeds its
// configured thread count.
type Pool struct {
	size int
}

func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size}
}

func (p *Pool) Size() int { return p.size }

// Run executes all tasks and blocks until the last one finished. Tasks must
// do their own error collection; a task failure never affects its siblings.
func (p *Pool) Run(tasks []func()) {
	sem := make(chan struct{}, p.size)
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(task func()) {
			defer wg.Done()
			defer func() { <-sem }()
			task()
		}(task)
	}
	wg.Wait()
}
