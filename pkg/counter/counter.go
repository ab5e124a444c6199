// Package counter provides a concurrent, self-pruning sliding-window
// counter.
//
// A Counter answers "how many samples were recorded in the last D seconds?"
// with bounded memory and no locks. Samples are aggregated into fixed-width
// time buckets (width = precision seconds) kept on a lock-free chain, so
// the number of live buckets never exceeds duration/precision + 1
// regardless of the sample rate.
//
// Correctness is independent of wall-clock discontinuities (DST, NTP step
// corrections) because the counter only consumes time through the injected
// monotonic clock.Clock.
//
// # Concurrency
//
// All methods are safe for concurrent use by any number of goroutines.
// Writers incrementing the same bucket never block each other, and readers
// never observe an inconsistent intermediate total. Contended operations
// retry a CAS a small, contention-bounded number of times; nothing ever
// sleeps or suspends.
//
// # Example Usage
//
//	// Count events over a trailing 60 second window, 1 second buckets
//	ctr, err := counter.New(clock.NewSystemClock(), 60, 1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	total, _ := ctr.Record(1) // record one event, get the running total
//	current := ctr.Value()    // read without recording
package counter

import (
	"errors"
	"fmt"

	"github.com/niik/frequency-counters/pkg/bucket"
	"github.com/niik/frequency-counters/pkg/chain"
	"github.com/niik/frequency-counters/pkg/clock"
)

var (
	// ErrInvalidDuration is returned by New when the window duration is
	// less than one second.
	ErrInvalidDuration = errors.New("duration must be >= 1 second")

	// ErrInvalidPrecision is returned by New when the bucket width is
	// less than one second.
	ErrInvalidPrecision = errors.New("precision must be >= 1 second")
)

// Counter counts samples over a trailing time window.
//
// The window duration and bucket precision are fixed at construction; the
// counter does not support resizing. All mutable state lives in the
// underlying chain, so the Counter struct itself is immutable after New
// and can be shared freely.
type Counter struct {
	clock         clock.Clock
	durationSecs  int64
	precisionSecs int64
	chain         *chain.Chain
}

// New creates a Counter reporting over a trailing window of durationSecs
// seconds, aggregated into buckets of precisionSecs seconds.
//
// Parameters:
//   - clk: Monotonic time source (must not be nil)
//   - durationSecs: Trailing window length in seconds (must be >= 1)
//   - precisionSecs: Bucket width in seconds (must be >= 1)
//
// Returns:
//   - *Counter: Initialized empty counter
//   - error: ErrInvalidDuration or ErrInvalidPrecision if a parameter is < 1
//
// A precision equal to the duration degrades the counter to a single
// rolling bucket; a smaller precision trades memory (duration/precision
// live buckets) for a sharper expiry edge.
//
// Example:
//
//	// 2 second window observed at 1 second granularity
//	ctr, err := counter.New(clk, 2, 1)
func New(clk clock.Clock, durationSecs, precisionSecs int64) (*Counter, error) {
	if durationSecs < 1 {
		return nil, fmt.Errorf("%w, got: %d", ErrInvalidDuration, durationSecs)
	}
	if precisionSecs < 1 {
		return nil, fmt.Errorf("%w, got: %d", ErrInvalidPrecision, precisionSecs)
	}

	return &Counter{
		clock:         clk,
		durationSecs:  durationSecs,
		precisionSecs: precisionSecs,
		chain:         chain.New(),
	}, nil
}

// Record adds n samples at the current time and returns the running total
// within the window.
//
// The current clock reading is quantized into a bucket, the samples are
// added to that bucket's node (installing it if this is the first write to
// the bucket), expired buckets are pruned, and the resulting total is
// returned.
//
// Parameters:
//   - n: Number of samples to record (must be >= 0)
//
// Returns:
//   - int64: Total samples within the trailing window, including n
//   - error: chain.ErrNegativeSamples if n < 0 (no state is mutated)
//
// Record(0) is a documented no-op equivalent to Value(): it records
// nothing but still prunes and reports the current state.
//
// Concurrent Record calls never lose updates: for any interleaving of
// writers at the same timestamp the final total equals the arithmetic sum
// of all recorded amounts.
func (c *Counter) Record(n int64) (int64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w, got: %d", chain.ErrNegativeSamples, n)
	}
	if n == 0 {
		return c.Value(), nil
	}

	now := bucket.Of(c.clock.NowMillis(), c.precisionSecs)

	// Fast path: with a zero total there is nothing to prune, so the
	// write stands alone.
	empty := c.chain.Total() == 0

	if err := c.chain.AdvanceAndAdd(now, n); err != nil {
		return 0, err
	}
	if !empty {
		c.chain.Prune(now - c.durationSecs)
	}
	return c.chain.Total(), nil
}

// Value returns the number of samples recorded within the trailing window
// as of the current clock reading.
//
// If the running total is zero the call returns 0 immediately without
// consulting the clock: no bucket can hold a positive count while the
// total is zero. Otherwise expired buckets are pruned before the total is
// read, so the result is always as fresh as the clock warrants.
//
// The returned value is non-negative.
func (c *Counter) Value() int64 {
	if c.chain.Total() == 0 {
		return 0
	}

	now := bucket.Of(c.clock.NowMillis(), c.precisionSecs)
	c.chain.Prune(now - c.durationSecs)
	return c.chain.Total()
}
