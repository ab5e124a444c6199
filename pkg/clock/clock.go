// Package clock provides time abstraction for deterministic testing.
//
// All counter implementations must use Clock instead of time.Now()
// to enable 100% reproducible, deterministic tests without sleeps or flakiness.
//
// The Clock interface allows tests to control time progression, making it
// possible to test time-dependent behavior (bucket rollover, window expiry)
// without introducing sleeps, race conditions, or non-determinism.
//
// Example usage:
//
//	// Production code
//	clk := clock.NewSystemClock()
//	ctr, _ := counter.New(clk, 60, 1)
//
//	// Test code
//	clk := clock.NewManualClock(0)
//	ctr, _ := counter.New(clk, 60, 1)
//	clk.AdvanceMillis(1_000) // Advance 1 second
//	// Test behavior after time advancement
package clock

import "time"

// Clock provides monotonic time for windowed counting.
//
// Implementations must guarantee monotonicity: time never goes backward,
// even across system clock adjustments (NTP steps, DST, manual changes).
//
// The counter packages depend on this interface for all time operations,
// enabling both production use (SystemClock) and deterministic testing
// (ManualClock).
type Clock interface {
	// NowMillis returns the current time in milliseconds since an arbitrary epoch.
	//
	// The epoch is implementation-defined and may differ between implementations.
	// Only time differences (elapsed time) are meaningful, not absolute values.
	//
	// Monotonicity guarantee: For any two successive calls A and B on the same
	// Clock instance, B.NowMillis() >= A.NowMillis() must hold true.
	NowMillis() int64
}

// SystemClock implements Clock using the system's monotonic clock.
//
// The returned values are anchored to the wall clock observed at
// construction, but progression is measured exclusively through Go's
// monotonic clock reading. A wall-clock step (NTP correction, DST change,
// manual adjustment) after construction cannot move the reported time
// backward.
//
// Thread-safe: Safe for concurrent use by multiple goroutines.
type SystemClock struct {
	base time.Time
}

// NewSystemClock creates a new SystemClock instance.
//
// The returned clock captures a monotonic base reading at construction
// and can be shared across goroutines.
func NewSystemClock() *SystemClock {
	return &SystemClock{base: time.Now()}
}

// NowMillis returns the current monotonic time in milliseconds.
//
// The value is the construction-time wall clock plus the monotonic elapsed
// time since construction. time.Since reads the monotonic clock embedded
// in the base, so subsequent wall-clock adjustments never reach callers.
func (c *SystemClock) NowMillis() int64 {
	return c.base.UnixMilli() + time.Since(c.base).Milliseconds()
}
