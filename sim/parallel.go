package sim

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum item count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 256

// span is a half-open index range dispatched to one worker.
type span struct {
	start, end int
	worker     int
	fn         func(start, end, worker int)
}

// workerPool runs persistent goroutines that process index ranges. Every
// kernel pass is expressed as fn(start, end, worker); the worker index
// selects per-worker scratch (partial grids, counters) so passes need no
// locks.
type workerPool struct {
	numWorkers int

	workChan chan span
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool() *workerPool {
	return &workerPool{numWorkers: runtime.GOMAXPROCS(0)}
}

// start launches the persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan span, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case s, ok := <-p.workChan:
			if !ok {
				return
			}
			s.fn(s.start, s.end, s.worker)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits [0, n) into one chunk per worker and blocks until all chunks
// finish. Small inputs run inline on the caller as worker 0.
func (p *workerPool) run(n int, fn func(start, end, worker int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold {
		fn(0, n, 0)
		return
	}
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- span{start: start, end: end, worker: w, fn: fn}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
