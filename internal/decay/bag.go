package decay

import (
	"iter"
	"slices"
	"time"
)

// Bag is an unordered multiset whose items expire after the lifespan.
type Bag[T comparable] struct {
	*engine[T, *listBucket[T]]
}

// NewBag constructs an empty Bag. The timer does not start until the first Add.
func NewBag[T comparable](lifespan time.Duration, opts ...Option) (*Bag[T], error) {
	e, err := newEngine[T](lifespan, newListBucket[T], opts)
	if err != nil {
		return nil, err
	}
	return &Bag[T]{engine: e}, nil
}

// Add inserts item. Duplicates are kept and decay independently.
func (b *Bag[T]) Add(item T) { b.add(item) }

// Remove drops the oldest occurrence of item and reports whether there was one.
// O(steps).
func (b *Bag[T]) Remove(item T) bool {
	return b.removeFirst(
		func(lb *listBucket[T]) bool { return lb.contains(item) },
		func(lb *listBucket[T]) bool { return lb.remove(item) },
	)
}

// Contains reports whether any bucket holds item. O(steps).
func (b *Bag[T]) Contains(item T) bool {
	return b.scan(func(lb *listBucket[T]) bool { return lb.contains(item) })
}

// All iterates the items, oldest first.
func (b *Bag[T]) All() iter.Seq[T] { return b.all() }

// Items returns a snapshot of the items, oldest first.
func (b *Bag[T]) Items() []T { return slices.Collect(b.all()) }
