package engine

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// workerPool runs scatter workers as a fixed set of goroutines, one
// queue per worker.
//
// Unlike a general task pool there is no work stealing: each scatter
// worker is bound to its partition by identity, the partitions are
// computed to be balanced up front, and workers never block on each
// other, so migrating tasks would buy nothing.
//
// Thread safety: workerPool is safe for concurrent use.
type workerPool struct {
	// workers is the number of worker goroutines.
	workers int

	// workQueues holds per-worker work queues.
	workQueues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// newWorkerPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used. The pool starts
// immediately and workers begin waiting for work.
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &workerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}

	// One slot per queue is enough: a scatter run submits exactly one
	// task per worker.
	for i := range workers {
		p.workQueues[i] = make(chan func(), 1)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *workerPool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return

		case work := <-myQueue:
			if work != nil {
				work()
			}
		}
	}
}

// drainQueue executes all remaining work in a queue.
func (p *workerPool) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work()
			}
		default:
			return
		}
	}
}

// ExecuteAll distributes work across workers and waits for all of it
// to complete. work[i] runs on worker i%workers; the scatter engine
// passes exactly one task per worker so the mapping is the identity.
// If the pool is closed, this is a no-op.
func (p *workerPool) ExecuteAll(work []func()) {
	if len(work) == 0 || !p.running.Load() {
		return
	}

	var completionWG sync.WaitGroup
	completionWG.Add(len(work))

	for i, fn := range work {
		workerID := i % p.workers
		workFn := fn

		wrappedWork := func() {
			defer completionWG.Done()
			workFn()
		}

		select {
		case p.workQueues[workerID] <- wrappedWork:
			// Successfully queued
		case <-p.done:
			// Pool is closing
			completionWG.Done()
		}
	}

	completionWG.Wait()
}

// Close gracefully shuts down the pool: it stops accepting new work,
// waits for queued work to complete, then stops all workers.
// Close is safe to call multiple times.
func (p *workerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		// Already closed
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *workerPool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *workerPool) IsRunning() bool {
	return p.running.Load()
}
