package renderer

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum row count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 32

// rowChunk represents a range of image rows for a worker to shade.
type rowChunk struct {
	start, end int
	fn         func(start, end int)
}

// rasterPool is a persistent worker pool for CPU rasterisation.
type rasterPool struct {
	numWorkers int

	// Worker pool channels
	workChan chan rowChunk  // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newRasterPool(workers int) *rasterPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &rasterPool{numWorkers: workers}
}

// startWorkers launches persistent worker goroutines.
func (p *rasterPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *rasterPool) stop() {
	if p == nil || !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *rasterPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run calls fn over [0, n) split into contiguous chunks and waits for all
// of them. Each row is shaded by exactly one worker.
func (p *rasterPool) run(n int, fn func(start, end int)) {
	if n < parallelThreshold || p.numWorkers < 2 {
		fn(0, n)
		return
	}

	// Ensure workers are running
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- rowChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all dispatched chunks
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
