package game

import (
	"context"
	"sync"
)

// WorkerPool runs submitted tasks on a fixed set of persistent goroutines
// fed by a bounded channel.
type WorkerPool struct {
	numWorkers int

	// Worker pool channels
	workChan chan func()   // sends work to workers
	stopChan chan struct{} // signals workers to exit
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool // true if workers are running
	stopped bool // true once Stop has closed stopChan
}

// NewWorkerPool creates a pool of numWorkers goroutines with a task queue
// of queueSize. Call Start before submitting.
func NewWorkerPool(numWorkers, queueSize int) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &WorkerPool{
		numWorkers: numWorkers,
		workChan:   make(chan func(), queueSize),
		stopChan:   make(chan struct{}),
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.numWorkers
}

// Start launches the worker goroutines. Calling it twice, or after Stop,
// does nothing.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.stopped {
		return
	}
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Stop signals all workers to exit and waits for them. A worker finishes
// the task it is running first; queued tasks are dropped.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.running = false
	close(p.stopChan)
	p.mu.Unlock()

	p.wg.Wait()
}

// Submit queues task, blocking while the queue is full. It returns false
// without queueing when ctx is done or the pool has been stopped.
func (p *WorkerPool) Submit(ctx context.Context, task func()) bool {
	if ctx.Err() != nil {
		return false
	}
	// With queue space free, a send would race the closed stopChan below.
	select {
	case <-p.stopChan:
		return false
	default:
	}
	select {
	case p.workChan <- task:
		return true
	case <-ctx.Done():
		return false
	case <-p.stopChan:
		return false
	}
}

// worker runs in a goroutine, processing tasks until stopped.
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case task := <-p.workChan:
			task()
		}
	}
}
