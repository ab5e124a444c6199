// Package engine provides multi-key frequency counting with LRU eviction.
//
// The engine manages one sliding-window counter per string key (per user,
// per IP, per API key) and creates counters on demand from a shared
// configuration. An LRU cache bounds the number of live counters, so the
// engine can observe an unbounded key space with bounded memory.
//
// # Concurrency Model
//
// The only lock in this package guards the LRU index, and it is held just
// long enough to look up or insert a counter. Recording and reading
// samples happens on the per-key counter itself, which is lock-free:
// goroutines recording against different keys never contend, and
// goroutines recording against the same key contend only at the atomic
// level inside the counter.
//
// # Eviction
//
// When MaxKeys is reached, the least recently used counter is evicted.
// A key's window state is lost on eviction; its next use starts a fresh
// counter. Size MaxKeys to cover the working set and watch the eviction
// logs in production.
//
// # Example Usage
//
//	eng, err := engine.NewEngine(clock.NewSystemClock(), engine.Config{
//	    DurationSeconds:  60,
//	    PrecisionSeconds: 1,
//	    MaxKeys:          10_000,
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	total, _ := eng.Record("user:123", 1) // events for user:123 in the last minute
//	current := eng.Value("user:123")      // read without recording
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/niik/frequency-counters/pkg/clock"
	"github.com/niik/frequency-counters/pkg/counter"
)

// Engine tracks per-key sample frequencies over a shared window shape.
//
// Thread-safe: all methods are safe for concurrent use by multiple
// goroutines.
type Engine struct {
	clock  clock.Clock
	config Config
	cache  *LRUCache
	logger *zap.Logger
}

// NewEngine creates an engine that manages one counter per key.
//
// Parameters:
//   - clk: Monotonic time source shared by every counter
//   - config: Window shape and key capacity (validated here)
//   - logger: Structured logger for lifecycle events (nil means no logging)
//
// Returns:
//   - *Engine: The initialized engine
//   - error: Validation error if the config is invalid
//
// The config is validated up front so a bad window shape surfaces at
// startup rather than on the first request for some key.
func NewEngine(clk clock.Clock, config Config, logger *zap.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		clock:  clk,
		config: config,
		logger: logger,
	}
	e.cache = NewLRUCache(config.MaxKeys, func(key string) {
		logger.Debug("evicted least recently used counter", zap.String("key", key))
	})
	return e, nil
}

// Record adds n samples for the given key and returns the key's running
// total within the window.
//
// If this is the first sample for the key, a counter is created from the
// engine's configuration. When the cache is at MaxKeys capacity, the least
// recently used key is evicted first.
//
// Parameters:
//   - key: Identity being counted (e.g. "user:123", "ip:10.0.0.1"); must
//     not be empty
//   - n: Number of samples to record (must be >= 0; n == 0 reads without
//     recording)
//
// Returns:
//   - int64: The key's total within the trailing window
//   - error: Validation error for an empty key or negative n; no state is
//     mutated on error
func (e *Engine) Record(key string, n int64) (int64, error) {
	if key == "" {
		return 0, fmt.Errorf("key must not be empty")
	}
	if n < 0 {
		// Reject before the key lookup so an invalid call cannot create
		// or refresh cache entries.
		return 0, fmt.Errorf("sample count must be >= 0, got: %d", n)
	}

	return e.getOrCreate(key).Record(n)
}

// Value returns the given key's total within the trailing window.
//
// A key that has never recorded a sample (or whose counter was evicted)
// reports 0; reading does not create a counter.
func (e *Engine) Value(key string) int64 {
	ctr, ok := e.cache.Get(key)
	if !ok {
		return 0
	}
	return ctr.Value()
}

// Len returns the number of keys with a live counter.
//
// Useful for monitoring cache usage against MaxKeys.
func (e *Engine) Len() int {
	return e.cache.Len()
}

// getOrCreate retrieves or creates the counter for a key.
//
// Fast path: the counter already exists in the cache. Slow path: build a
// candidate counter and insert it with PutIfAbsent; if another goroutine
// inserted first, their counter wins and the candidate is discarded. This
// guarantees exactly one live counter per key without holding the cache
// lock across counter construction.
func (e *Engine) getOrCreate(key string) *counter.Counter {
	if ctr, ok := e.cache.Get(key); ok {
		return ctr
	}

	cand, err := counter.New(e.clock, e.config.DurationSeconds, e.config.PrecisionSeconds)
	if err != nil {
		// Unreachable for a config that passed NewEngine validation; a
		// failure here means the Config was mutated afterwards.
		panic(fmt.Sprintf("failed to create counter from validated config: %v", err))
	}

	if existing := e.cache.PutIfAbsent(key, cand); existing != nil {
		return existing
	}

	e.logger.Debug("created counter",
		zap.String("key", key),
		zap.Int64("duration_seconds", e.config.DurationSeconds),
		zap.Int64("precision_seconds", e.config.PrecisionSeconds))
	return cand
}
