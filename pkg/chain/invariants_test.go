package chain

import (
	"sync"
	"testing"
)

// walk returns the bucket ids and the count sum of every live node - those
// strictly after the tail. Test helper for quiescent-point invariant checks.
func walk(c *Chain) (buckets []int64, sum int64) {
	for n := c.tail.Load().next.Load(); n != nil; n = n.next.Load() {
		buckets = append(buckets, n.bucket)
		sum += n.count.Load()
	}
	return buckets, sum
}

// TestInvariants_QuiescentPoints drives concurrent writers and pruners in
// rounds and, at every quiescent point between rounds, checks the chain
// invariants:
//
//   - live buckets from oldest to head are strictly increasing (no
//     duplicates)
//   - the running total equals the sum of all live counts
func TestInvariants_QuiescentPoints(t *testing.T) {
	c := New()

	const writers = 8
	const rounds = 40

	for b := int64(0); b < rounds; b++ {
		var wg sync.WaitGroup
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = c.AdvanceAndAdd(b, 2)
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Prune(b - 5)
		}()
		wg.Wait()

		buckets, sum := walk(c)

		for i := 1; i < len(buckets); i++ {
			if buckets[i] <= buckets[i-1] {
				t.Fatalf("round %d: buckets not strictly increasing: %v", b, buckets)
			}
		}
		if got := c.total.Load(); got != sum {
			t.Fatalf("round %d: total = %d, live sum = %d", b, got, sum)
		}
	}
}

// TestTail_ParksOnLastExpiredNode verifies that draining the whole window
// retains the last expired node as the tail, and that the next install
// splices onto its forward link so the new node is immediately live.
func TestTail_ParksOnLastExpiredNode(t *testing.T) {
	c := New()
	_ = c.AdvanceAndAdd(1, 4)
	c.Prune(100)

	tail := c.tail.Load()
	if tail != c.head.Load() {
		t.Fatal("draining prune must park the tail on the old head")
	}
	if tail.bucket != 1 {
		t.Fatalf("tail bucket = %d, want 1", tail.bucket)
	}
	if next := tail.next.Load(); next != nil {
		t.Fatalf("drained tail has a successor at bucket %d", next.bucket)
	}
	if got := c.total.Load(); got != 0 {
		t.Fatalf("total = %d after drain, want 0", got)
	}

	_ = c.AdvanceAndAdd(101, 9)

	live := tail.next.Load()
	if live == nil || live != c.head.Load() {
		t.Fatal("install after drain must splice onto the retained tail's forward link")
	}
	if live.bucket != 101 {
		t.Errorf("live bucket = %d, want 101", live.bucket)
	}
	if got := c.total.Load(); got != 9 {
		t.Errorf("total = %d, want 9", got)
	}
}
