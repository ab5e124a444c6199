// Package bucket quantizes monotonic timestamps into fixed-width buckets.
//
// A bucket is a fixed-width time interval (width = precision seconds)
// identified by its starting second, aligned to a multiple of the precision.
// Aligning samples to fixed-width buckets bounds the number of live buckets
// in a window to duration/precision, independent of the sample rate.
//
// The package holds no state; Of is a pure function of its inputs.
package bucket

// Of maps a monotonic millisecond timestamp to its bucket id for the given
// bucket width.
//
// The bucket id is the timestamp's whole second, rounded down to a
// multiple of precisionSecs:
//
//	Of(nowMillis, p) = floor(nowMillis/1000) - (floor(nowMillis/1000) mod p)
//
// with floor division and a non-negative mod, so the rounding is always
// toward negative infinity. Go's native / and % truncate toward zero,
// which for negative timestamps would round up instead and misalign the
// bucket grid around zero.
//
// Parameters:
//   - nowMillis: Monotonic timestamp in milliseconds (any sign)
//   - precisionSecs: Bucket width in seconds (must be >= 1; callers validate)
//
// Guarantees:
//   - Total over valid inputs, no error cases
//   - Non-decreasing nowMillis yields non-decreasing bucket ids
//   - Every returned id is a multiple of precisionSecs
//
// Example with precisionSecs=10:
//   - Of(-1, 10)     = -10
//   - Of(0, 10)      = 0
//   - Of(9_999, 10)  = 0
//   - Of(10_000, 10) = 10
//   - Of(59_999, 10) = 50
func Of(nowMillis, precisionSecs int64) int64 {
	secs := nowMillis / 1000
	if nowMillis < 0 && nowMillis%1000 != 0 {
		secs--
	}
	rem := secs % precisionSecs
	if rem < 0 {
		rem += precisionSecs
	}
	return secs - rem
}
