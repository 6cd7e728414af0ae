package decay

import (
	"sync"
	"sync/atomic"
)

// slot owns the bucket at one ring position. The bucket is replaced, never
// emptied in place, and only while mu is held for writing.
type slot[B any] struct {
	mu     sync.RWMutex
	bucket B
}

// ring is a fixed-length array of slots plus the cursor of the active slot.
// The array never changes length; only slot contents and the cursor rotate.
type ring[B any] struct {
	slots  []slot[B]
	cursor atomic.Int64
	fresh  func() B
}

func newRing[B any](steps int, fresh func() B) *ring[B] {
	r := &ring[B]{
		slots: make([]slot[B], steps),
		fresh: fresh,
	}
	for i := range r.slots {
		r.slots[i].bucket = fresh()
	}
	return r
}

func (r *ring[B]) size() int64 { return int64(len(r.slots)) }

func (r *ring[B]) at(i int64) *slot[B] { return &r.slots[i%r.size()] }

// active returns the slot currently accepting inserts.
func (r *ring[B]) active() *slot[B] { return r.at(r.cursor.Load()) }

// next is the slot that ages out on the following rotation.
func (r *ring[B]) next() int64 { return (r.cursor.Load() + 1) % r.size() }

// detach swaps the bucket at i for an empty one under the slot's write lock.
// onDetach runs while the lock is still held, so no writer can observe the
// slot between the swap and the bookkeeping.
func (r *ring[B]) detach(i int64, onDetach func(old B)) B {
	s := r.at(i)
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.bucket
	s.bucket = r.fresh()
	onDetach(old)
	return old
}

// oldestFirst visits every slot starting with the one that ages out next and
// ending with the active one. Cursor moves during the walk are not observed.
func (r *ring[B]) oldestFirst(visit func(s *slot[B]) bool) {
	start := r.cursor.Load() + 1
	for i := int64(0); i < r.size(); i++ {
		if !visit(r.at(start + i)) {
			return
		}
	}
}
