// Package chain implements the lock-free bucket chain backing the counter.
//
// # Structure
//
// The chain is a singly-linked list of per-bucket sample nodes, linked from
// oldest to newest in strictly increasing bucket order. The tail reference
// points at the most recently expired node - the predecessor of the oldest
// live node - so the live window is everything strictly after the tail:
//
//	tail → [expired] → [bucket 5] → [bucket 6] → [bucket 8] → head
//	                   └────────── live window ──────────────┘
//
// A fresh chain starts with a dummy origin node holding both references, so
// the tail is never nil and draining the window completely just parks the
// tail on the last expired node. That node keeps its forward link, which is
// what makes a drain safe against concurrent appends: a node appended while
// a drain is in flight is always spliced after the walked end and therefore
// stays reachable from the new tail, no matter how the two operations
// interleave.
//
// New buckets are appended at the head, expired buckets are dropped by
// advancing the tail past them, and a running total of all live counts is
// maintained alongside. All three operations compose under arbitrary
// interleaving using only atomic loads, atomic adds, and compare-and-swap -
// there is no mutex anywhere on this path and no operation ever blocks
// another.
//
// # Concurrency protocol
//
// Appending (AdvanceAndAdd) installs a candidate node with a single CAS on
// head and then links the old head forward to it; a failed CAS means
// another writer installed an equal or newer bucket first, so the attempt
// is re-evaluated against the new head. Incrementing an existing bucket is
// a plain atomic add - concurrent writers to the same bucket never contend
// beyond the hardware level. Appenders never write the tail.
//
// Trimming (Prune) walks forward from the tail, sums the counts of expired
// nodes, and commits the trim with a single CAS advancing tail to the last
// expired node; exactly one attempt's subtraction is ever applied to the
// total because the CAS serializes competing pruners on the same starting
// tail. A loser recomputes from the new tail and either finds nothing left
// to do or trims the remainder.
//
// Nodes left behind the tail may still be referenced by an in-flight walk;
// they are left for the garbage collector, which reclaims them once the
// last such reference is gone.
//
// # Per-node lifecycle
//
// A node moves through one-directional states and never re-enters an
// earlier one:
//
//	unlinked → head (newest) → interior → expired (at or behind tail)
//
// Its bucket id is immutable after creation and its count is only ever
// incremented.
package chain

import (
	"errors"
	"math"

	"go.uber.org/atomic"
)

// ErrNegativeSamples is returned when a caller attempts to record a
// negative sample count. Sample counts are unsigned in effect; no state is
// mutated when this error is returned.
var ErrNegativeSamples = errors.New("sample count must be >= 0")

// originBucket is the dummy origin node's bucket id. It compares older
// than every real bucket, so the origin node never matches or outranks a
// write target.
const originBucket = math.MinInt64

// node holds all samples recorded within one bucket.
//
// bucket is immutable after creation. count is mutated only by atomic add
// and never decremented. next points to the node for the next-newer bucket,
// or nil while this node is the newest.
type node struct {
	bucket int64
	count  atomic.Int64
	next   atomic.Pointer[node]
}

// Chain is a lock-free, time-ordered chain of bucket nodes with a running
// total.
//
// The zero value is not ready for use; construct with New.
//
// Thread-safe: all methods may be called concurrently from any number of
// goroutines. head, tail, total and each node's count are the only mutable
// shared state, and all of them are accessed exclusively through atomics.
type Chain struct {
	head  atomic.Pointer[node]
	tail  atomic.Pointer[node]
	total atomic.Int64
}

// New creates an empty chain with a zero total.
//
// The head and tail both start on a dummy origin node, so neither
// reference is ever nil and the live window (everything after the tail)
// starts empty.
func New() *Chain {
	c := &Chain{}
	origin := &node{bucket: originBucket}
	c.head.Store(origin)
	c.tail.Store(origin)
	return c
}

// AdvanceAndAdd ensures a live node for the given bucket exists at the
// head and adds n samples to it.
//
// Buckets only move forward: the target bucket is expected to be >= the
// current head's bucket, which holds whenever the caller quantizes a
// monotonic clock. Cases:
//
//   - bucket is newer than the head: a new node is installed at the head
//     via CAS, the old head is linked forward to it, and n is added. The
//     tail is never touched - the forward link alone keeps the new node
//     reachable, even when a concurrent prune is draining the window.
//   - bucket equals the head's bucket and the head is live: n is added to
//     the existing head node. Concurrent writers to the same bucket all
//     succeed through independent atomic adds.
//   - bucket equals the head's bucket but the head has already expired
//     (the tail is parked on it): the sample's bucket aged out of the
//     window before the write landed, and the write is dropped.
//   - bucket is strictly older than the head: the write is dropped - the
//     call succeeds but mutates nothing. This only happens when the time
//     source violates monotonicity, and dropping the sample keeps it from
//     being misattributed to a newer bucket (which would extend its
//     lifetime in the window).
//
// The install loop terminates because a failed CAS always observes a
// strictly newer head: either the retry finds the target bucket current,
// finds the target stale, or races again with a shrinking set of writers.
//
// Edge cases:
//   - n == 0 is a no-op and returns nil
//   - n < 0 returns ErrNegativeSamples without mutating state
func (c *Chain) AdvanceAndAdd(bucket, n int64) error {
	if n < 0 {
		return ErrNegativeSamples
	}
	if n == 0 {
		return nil
	}

	for {
		head := c.head.Load()

		if head.bucket == bucket {
			if c.tail.Load() == head {
				// The head was drained while this write was in flight:
				// its bucket is already outside the window. Dropped.
				return nil
			}
			head.count.Add(n)
			c.total.Add(n)
			return nil
		}
		if head.bucket > bucket {
			// Stale write from a non-monotonic time source: dropped.
			return nil
		}

		cand := &node{bucket: bucket}
		if c.head.CompareAndSwap(head, cand) {
			head.next.Store(cand)
			cand.count.Add(n)
			c.total.Add(n)
			return nil
		}
		// Lost the install race: another writer published an equal or
		// newer head. Re-evaluate against it.
	}
}

// Prune expires every node whose bucket is older than expiry and
// subtracts their accumulated counts from the total exactly once.
//
// Callers pass the precomputed expiry bucket (current bucket minus the
// window duration); the chain itself knows nothing about window sizes.
//
// Algorithm, repeated until the oldest live node is within the window (or
// none remain):
//  1. Read the tail and its successor, the oldest live node. Done if there
//     is no successor or its bucket is >= expiry.
//  2. Walk forward via next, summing counts of nodes with bucket < expiry,
//     remembering the last such node, until reaching the first in-window
//     node or the end of the chain.
//  3. CAS the tail from the originally-read node to that last expired
//     node. On success, subtract the sum from the total. On failure
//     another pruner already advanced the tail; the sum is discarded and
//     recomputed fresh from the new tail.
//
// Step 3's CAS makes the subtraction exactly-once per expired node: a
// successful swap moves every summed node at or behind the tail, where no
// later walk (which starts after the tail) can sum it again, and the
// losing attempts never commit their sums at all. Pruning is monotonic
// and irreversible - the tail only ever advances.
//
// The last expired node is retained as the tail rather than unlinked, so
// a node appended during the walk remains reachable through the retained
// node's forward link. Draining the window therefore never strands a
// concurrent append.
func (c *Chain) Prune(expiry int64) {
	for {
		tail := c.tail.Load()
		first := tail.next.Load() // oldest live node
		if first == nil || first.bucket >= expiry {
			return
		}

		var expired int64
		last := tail
		for n := first; n != nil && n.bucket < expiry; n = n.next.Load() {
			expired += n.count.Load()
			last = n
		}

		if c.tail.CompareAndSwap(tail, last) {
			c.total.Sub(expired)
		}
		// Retry: either more expired nodes remain past the new tail, or
		// the next iteration observes an in-window successor and returns.
	}
}

// Total returns the running sum of all live nodes' counts.
//
// This is a single atomic read with no prune side effect; callers that
// need the total to reflect the current clock must call Prune first (the
// counter facade always does).
func (c *Chain) Total() int64 {
	return c.total.Load()
}

// Len returns the number of live nodes - those strictly after the tail.
//
// Intended for tests and diagnostics at quiescent points; under concurrent
// mutation the walk is safe but the returned count is momentary.
func (c *Chain) Len() int {
	count := 0
	for n := c.tail.Load().next.Load(); n != nil; n = n.next.Load() {
		count++
	}
	return count
}
