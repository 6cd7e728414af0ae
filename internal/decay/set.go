package decay

import (
	"iter"
	"slices"
	"sync"
	"time"
)

// Set holds each item at most once. Adding an item that is already present
// restarts its lifetime.
type Set[T comparable] struct {
	*engine[T, *setBucket[T]]

	// writeMu makes remove-then-insert atomic with respect to other Adds.
	writeMu sync.Mutex
}

// NewSet constructs an empty Set.
func NewSet[T comparable](lifespan time.Duration, opts ...Option) (*Set[T], error) {
	e, err := newEngine[T](lifespan, newSetBucket[T], opts)
	if err != nil {
		return nil, err
	}
	return &Set[T]{engine: e}, nil
}

// Add inserts item into the active bucket, dropping any older occurrence first.
func (s *Set[T]) Add(item T) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.Remove(item)
	s.add(item)
}

// Remove drops item and reports whether it was present.
func (s *Set[T]) Remove(item T) bool {
	return s.removeFirst(
		func(sb *setBucket[T]) bool { return sb.has(item) },
		func(sb *setBucket[T]) bool { return sb.delete(item) },
	)
}

// Contains reports whether item is present. O(steps).
func (s *Set[T]) Contains(item T) bool {
	return s.scan(func(sb *setBucket[T]) bool { return sb.has(item) })
}

// All iterates the items, oldest first.
func (s *Set[T]) All() iter.Seq[T] { return s.all() }

// Items returns a snapshot of the items, oldest first.
func (s *Set[T]) Items() []T { return slices.Collect(s.all()) }
