// Package stress provides a worker pool for driving concurrent load at a
// counter.
//
// Concurrency tests and benchmarks need many goroutines recording against
// the same counter at once to produce contended interleavings of the
// append/increment/prune paths. The Pool packages that up: a fixed number
// of recorder goroutines consume sample amounts from a shared job queue
// and report each call's outcome on a results channel.
//
//	jobs channel → [Recorder 1] → results channel
//	               [Recorder 2] →
//	               [Recorder N] →
//
// Example:
//
//	pool := stress.NewPool(ctr, 8)
//	for i := 0; i < 10_000; i++ {
//	    pool.Submit(1)
//	}
//	pool.CloseJobs()
//
//	var recorded int64
//	for res := range pool.Results() {
//	    if res.Err == nil {
//	        recorded += res.Amount
//	    }
//	}
package stress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/niik/frequency-counters/pkg/counter"
)

// Result is the outcome of a single Record call made by a pool worker.
type Result struct {
	// Worker is the id of the recorder that made the call.
	Worker int

	// Amount is the sample count that was recorded.
	Amount int64

	// Total is the running window total the Record call returned.
	Total int64

	// Err is the error returned by Record, if any.
	Err error
}

// Pool fans a fixed number of recorder goroutines over one counter.
//
// Thread-safe: Submit, Results and Close may be called from multiple
// goroutines.
type Pool struct {
	counter    *counter.Counter
	numWorkers int
	jobs       chan int64
	results    chan Result
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	mu            sync.Mutex
	jobsSubmitted int
}

// NewPool creates a pool of numWorkers recorder goroutines over ctr and
// starts them immediately.
//
// The job and result channels are buffered at twice the worker count to
// keep recorders busy while providing backpressure to submitters.
func NewPool(ctr *counter.Counter, numWorkers int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		counter:    ctr,
		numWorkers: numWorkers,
		jobs:       make(chan int64, numWorkers*2),
		results:    make(chan Result, numWorkers*2),
		ctx:        ctx,
		cancel:     cancel,
	}

	for i := 0; i < numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	// Close the results channel once every recorder has exited.
	go func() {
		p.wg.Wait()
		close(p.results)
	}()

	return p
}

// worker records amounts from the jobs channel until the channel is
// closed or the pool is shut down.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return

		case amount, ok := <-p.jobs:
			if !ok {
				return
			}

			total, err := p.counter.Record(amount)
			res := Result{Worker: id, Amount: amount, Total: total, Err: err}

			select {
			case p.results <- res:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues one Record call for the given sample amount.
//
// Blocks when the job buffer is full, providing natural backpressure.
// Jobs submitted after Close are discarded.
func (p *Pool) Submit(amount int64) {
	p.mu.Lock()
	p.jobsSubmitted++
	p.mu.Unlock()

	select {
	case p.jobs <- amount:
	case <-p.ctx.Done():
	}
}

// CloseJobs signals that no more jobs will be submitted.
//
// Recorders finish the queued jobs and exit; the results channel closes
// when the last recorder is done. Must be called exactly once, and only
// after all Submit calls have returned.
func (p *Pool) CloseJobs() {
	close(p.jobs)
}

// Results returns the results channel.
//
// Consumers should range over it until it closes:
//
//	for res := range pool.Results() {
//	    ...
//	}
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Close shuts the pool down without waiting for queued jobs.
//
// Returns an error if the recorders fail to exit within five seconds,
// which would indicate a deadlocked consumer. Safe to call after
// CloseJobs to release the pool's context.
func (p *Pool) Close() error {
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for recorders to finish")
	}
}

// Submitted returns the number of jobs handed to Submit so far.
func (p *Pool) Submitted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobsSubmitted
}
