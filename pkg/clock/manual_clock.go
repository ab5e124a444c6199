package clock

import (
	"fmt"
	"sync"
)

// ManualClock provides controllable time for deterministic testing.
//
// This clock allows tests to:
// - Advance time by specific durations (AdvanceMillis)
// - Jump to absolute timestamps (SetMillis)
// - Avoid sleeps and race conditions
// - Achieve 100% reproducible results
//
// ManualClock is the foundation of deterministic testing in this codebase.
// All counter tests use ManualClock to control time progression, eliminating
// the need for time.Sleep() calls and ensuring tests run fast and reliably.
//
// Thread-safe: Safe for concurrent use by multiple goroutines.
// The internal mutex ensures that time updates and reads are atomic.
//
// Example usage:
//
//	clk := clock.NewManualClock(0) // Start at time 0
//
//	ctr, _ := counter.New(clk, 2, 1) // 2 second window, 1 second buckets
//	ctr.Record(1)                    // total = 1
//
//	clk.AdvanceMillis(3_000) // Advance past the window
//	ctr.Value()              // 0 - the sample expired
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a ManualClock starting at the specified time.
//
// The startMillis parameter defines the initial time value in milliseconds.
// Common patterns:
// - Start at 0: NewManualClock(0)
// - Start at a specific Unix timestamp: NewManualClock(time.Now().UnixMilli())
//
// The choice of startMillis is arbitrary; only time differences matter for
// window expiry.
func NewManualClock(startMillis int64) *ManualClock {
	return &ManualClock{now: startMillis}
}

// NowMillis returns the current manual time in milliseconds.
//
// This method is thread-safe and can be called concurrently with
// AdvanceMillis and SetMillis from multiple goroutines.
//
// The returned value is monotonic as long as only AdvanceMillis is used to
// move time. SetMillis can move time backward; for deterministic tests,
// avoid concurrent time manipulation from multiple goroutines.
func (c *ManualClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AdvanceMillis advances the clock by the specified duration.
//
// This is the primary method for simulating time passage in tests.
// It increments the current time by delta milliseconds, preserving
// monotonicity.
//
// Parameters:
//   - delta: Duration in milliseconds to advance (must be >= 0)
//
// Returns:
//   - error if delta is negative
//
// Example:
//
//	clk := NewManualClock(0)
//	clk.AdvanceMillis(1_000) // Advance 1 second
//	clk.AdvanceMillis(500)   // Advance 0.5 seconds
//	// Current time is now 1.5 seconds
func (c *ManualClock) AdvanceMillis(delta int64) error {
	if delta < 0 {
		return fmt.Errorf("delta must be >= 0, got: %d", delta)
	}
	c.mu.Lock()
	c.now += delta
	c.mu.Unlock()
	return nil
}

// SetMillis sets the clock to an absolute time value.
//
// Unlike AdvanceMillis, this method can move time backward, breaking
// monotonicity. Tests use it to exercise the counter's handling of a
// misbehaving time source; production clocks never do this.
//
// Prefer AdvanceMillis over SetMillis when possible to maintain the
// monotonicity guarantee of the Clock contract.
//
// Parameters:
//   - value: Absolute time in milliseconds to set
//
// Example:
//
//	clk := NewManualClock(0)
//	clk.SetMillis(1_000) // Jump to 1 second
//	clk.SetMillis(500)   // Jump back to 0.5 seconds (non-monotonic!)
func (c *ManualClock) SetMillis(value int64) {
	c.mu.Lock()
	c.now = value
	c.mu.Unlock()
}
