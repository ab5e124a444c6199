package stress_test

import (
	"testing"

	"github.com/niik/frequency-counters/pkg/clock"
	"github.com/niik/frequency-counters/pkg/counter"
	"github.com/niik/frequency-counters/pkg/stress"
)

// TestPool_AllSamplesLand drives a burst of concurrent records through
// the pool at a fixed timestamp and verifies the counter ends up with the
// exact sum of everything recorded.
func TestPool_AllSamplesLand(t *testing.T) {
	clk := clock.NewManualClock(0)
	ctr, err := counter.New(clk, 60, 1)
	if err != nil {
		t.Fatalf("counter.New: %v", err)
	}

	pool := stress.NewPool(ctr, 8)

	const jobs = 5_000
	go func() {
		for i := 0; i < jobs; i++ {
			pool.Submit(1)
		}
		pool.CloseJobs()
	}()

	var recorded int64
	results := 0
	for res := range pool.Results() {
		if res.Err != nil {
			t.Errorf("worker %d: Record(%d) failed: %v", res.Worker, res.Amount, res.Err)
			continue
		}
		recorded += res.Amount
		results++
	}

	if results != jobs {
		t.Fatalf("received %d results, want %d", results, jobs)
	}
	if pool.Submitted() != jobs {
		t.Errorf("Submitted() = %d, want %d", pool.Submitted(), jobs)
	}
	if got := ctr.Value(); got != recorded {
		t.Errorf("Value() = %d, want %d (pool lost samples)", got, recorded)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

// TestPool_ReportsErrors verifies that a rejected record surfaces on the
// results channel instead of disappearing.
func TestPool_ReportsErrors(t *testing.T) {
	clk := clock.NewManualClock(0)
	ctr, _ := counter.New(clk, 60, 1)

	pool := stress.NewPool(ctr, 2)
	pool.Submit(-1)
	pool.CloseJobs()

	var sawError bool
	for res := range pool.Results() {
		if res.Err != nil {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected an error result for a negative amount")
	}
	if got := ctr.Value(); got != 0 {
		t.Errorf("Value() = %d, want 0", got)
	}
}

// TestPool_CloseWithoutJobs verifies shutdown with an idle pool.
func TestPool_CloseWithoutJobs(t *testing.T) {
	ctr, _ := counter.New(clock.NewManualClock(0), 60, 1)
	pool := stress.NewPool(ctr, 4)

	if err := pool.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
