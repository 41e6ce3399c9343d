package jobs

import "sync"

// pool runs submitted tasks on a fixed number of goroutines.
type pool struct {
	tasks    chan func()
	workerWg sync.WaitGroup // worker goroutines
	taskWg   sync.WaitGroup // submitted tasks not yet finished
}

func newPool(workers, buffer int) *pool {
	p := &pool{tasks: make(chan func(), buffer)}
	for i := 0; i < max(workers, 1); i++ {
		p.workerWg.Add(1)
		go func() {
			defer p.workerWg.Done()
			for task := range p.tasks {
				task()
				p.taskWg.Done()
			}
		}()
	}
	return p
}

// submit blocks if the task buffer is full.
func (p *pool) submit(task func()) {
	p.taskWg.Add(1)
	p.tasks <- task
}

func (p *pool) wait() {
	p.taskWg.Wait()
}

func (p *pool) close() {
	close(p.tasks)
	p.workerWg.Wait()
}
