package decay

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Decayed is the notification raised for every item evicted by a rotation.
type Decayed[T any] struct {
	Item T
}

// SubscriptionID identifies a decay observer registered with Subscribe.
type SubscriptionID = uuid.UUID

type subscriber[T any] struct {
	id SubscriptionID
	fn func(Decayed[T])
}

// engine is the lifetime manager shared by every collection. It owns the ring
// and the timer and is the single source of truth for the item count.
//
// Lock order: stepMu, then a slot lock, then timerMu. Nothing takes stepMu
// while holding a slot lock or timerMu.
type engine[T any, B bucket[T]] struct {
	lifespan time.Duration
	period   time.Duration
	ring     *ring[B]
	count    atomic.Int64

	// stepMu serializes rotations.
	stepMu sync.Mutex

	// timerMu guards the running/paused decision and disposal.
	timerMu      sync.Mutex
	timer        Timer
	timerRunning bool
	closed       bool

	subMu sync.RWMutex
	subs  []subscriber[T]

	log *slog.Logger
	rec Recorder
}

func newEngine[T any, B bucket[T]](lifespan time.Duration, fresh func() B, opts []Option) (*engine[T, B], error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if lifespan <= 0 {
		return nil, fmt.Errorf("%w: lifespan must be positive, got %s", ErrInvalidArgument, lifespan)
	}

	steps := o.steps
	if !o.stepsSet {
		// One bucket per second of lifespan.
		steps = max(int(lifespan/time.Second), 1)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidArgument, steps)
	}

	period := lifespan / time.Duration(steps)
	if period <= 0 {
		return nil, fmt.Errorf("%w: lifespan %s cannot be split into %d steps", ErrInvalidArgument, lifespan, steps)
	}

	timer := o.timer
	if !o.timerSet {
		timer = NewTickerTimer()
	}
	if timer == nil {
		return nil, fmt.Errorf("%w: nil timer", ErrInvalidArgument)
	}

	log := o.logger
	if log == nil {
		log = slog.Default()
	}
	rec := o.recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	return &engine[T, B]{
		lifespan: lifespan,
		period:   period,
		ring:     newRing(steps, fresh),
		timer:    timer,
		log:      log.With("component", "decay", "lifespan", lifespan, "steps", steps),
		rec:      rec,
	}, nil
}

// Len returns the number of items currently held. It may lag concurrent
// writers but never drifts from the true total once they finish.
func (e *engine[T, B]) Len() int {
	return int(e.count.Load())
}

// Lifespan returns the configured maximum age of an item.
func (e *engine[T, B]) Lifespan() time.Duration { return e.lifespan }

// Steps returns the number of buckets in the ring.
func (e *engine[T, B]) Steps() int { return int(e.ring.size()) }

// Subscribe registers fn to be called synchronously, on the timer goroutine,
// once for every decayed item. Observers fire in subscription order and may
// call back into the collection. A nil fn is ignored and yields uuid.Nil.
func (e *engine[T, B]) Subscribe(fn func(Decayed[T])) SubscriptionID {
	if fn == nil {
		return uuid.Nil
	}
	id := uuid.New()

	e.subMu.Lock()
	e.subs = append(e.subs, subscriber[T]{id: id, fn: fn})
	e.subMu.Unlock()
	return id
}

// Unsubscribe removes the observer registered under id and reports whether
// it was found.
func (e *engine[T, B]) Unsubscribe(id SubscriptionID) bool {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	i := slices.IndexFunc(e.subs, func(s subscriber[T]) bool { return s.id == id })
	if i < 0 {
		return false
	}
	e.subs = slices.Delete(e.subs, i, i+1)
	return true
}

// Clear discards every item by rotating the ring once per bucket, exactly as
// if the whole lifespan had elapsed. Cleared items are reported to the
// Recorder as removed; decay observers are not notified.
func (e *engine[T, B]) Clear() {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	discarded := 0
	for range e.ring.size() {
		discarded += len(e.stepLocked())
	}
	if discarded > 0 {
		e.rec.Removed(discarded)
	}
}

// Close releases the timer. No rotation and no new notification starts once
// Close returns; a notification already being delivered runs to completion,
// which lets an observer call Close. Close is safe to call multiple times; the
// collection must not be used afterwards.
func (e *engine[T, B]) Close() error {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.timerRunning = false
	if err := e.timer.Close(); err != nil {
		return fmt.Errorf("close timer: %w", err)
	}
	return nil
}

// add inserts item into the active bucket.
func (e *engine[T, B]) add(item T) {
	s := e.ring.active()
	s.mu.Lock()
	grew := s.bucket.add(item)
	if grew {
		e.count.Add(1)
	}
	s.mu.Unlock()

	if grew {
		e.rec.Added(1)
		e.syncTimer()
	}
}

// removeFirst drops one item from the oldest bucket where has matches.
// The has check runs under the slot's read lock; del re-checks under the write
// lock, because a rotation or another remover may have won the slot in between.
func (e *engine[T, B]) removeFirst(has, del func(B) bool) bool {
	removed := false
	e.ring.oldestFirst(func(s *slot[B]) bool {
		s.mu.RLock()
		found := has(s.bucket)
		s.mu.RUnlock()
		if !found {
			return true
		}

		s.mu.Lock()
		if del(s.bucket) {
			e.count.Add(-1)
			removed = true
		}
		s.mu.Unlock()
		return !removed
	})

	if removed {
		e.rec.Removed(1)
		e.syncTimer()
	}
	return removed
}

// scan visits buckets oldest first under their read locks until visit
// returns true, and reports whether it did.
func (e *engine[T, B]) scan(visit func(B) bool) bool {
	hit := false
	e.ring.oldestFirst(func(s *slot[B]) bool {
		s.mu.RLock()
		hit = visit(s.bucket)
		s.mu.RUnlock()
		return !hit
	})
	return hit
}

// all yields items oldest bucket first, in insertion order within a bucket.
// Each bucket is copied under its read lock before any of it is yielded, so
// the consumer may mutate the collection; such mutations may or may not be
// visible to the rest of the pass.
func (e *engine[T, B]) all() iter.Seq[T] {
	return func(yield func(T) bool) {
		e.ring.oldestFirst(func(s *slot[B]) bool {
			s.mu.RLock()
			items := s.bucket.items()
			s.mu.RUnlock()

			for _, item := range items {
				if !yield(item) {
					return false
				}
			}
			return true
		})
	}
}

// tick is the timer callback: one rotation, then notifications. A tick that
// lands after Close is dropped.
func (e *engine[T, B]) tick() {
	e.stepMu.Lock()
	if e.isClosed() {
		e.stepMu.Unlock()
		return
	}
	decayed := e.stepLocked()
	e.stepMu.Unlock()

	e.rec.Rotated()
	if len(decayed) == 0 {
		return
	}
	e.rec.Decayed(len(decayed))
	e.log.Debug("items decayed", "count", len(decayed), "remaining", e.Len())
	e.notify(decayed)
}

// stepLocked rotates the ring once and returns what aged out. The ring,
// count and timer are consistent before it returns, so observers notified
// afterwards see a coherent collection. Callers hold stepMu.
func (e *engine[T, B]) stepLocked() []T {
	next := e.ring.next()
	old := e.ring.detach(next, func(old B) {
		e.count.Add(-int64(old.len()))
	})
	e.syncTimer()
	e.ring.cursor.Store(next)
	return old.items()
}

func (e *engine[T, B]) notify(items []T) {
	e.subMu.RLock()
	subs := slices.Clone(e.subs)
	e.subMu.RUnlock()

	for _, item := range items {
		for _, s := range subs {
			if e.isClosed() {
				return
			}
			s.fn(Decayed[T]{Item: item})
		}
	}
}

func (e *engine[T, B]) isClosed() bool {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()
	return e.closed
}

// syncTimer enforces "the timer runs if and only if count > 0". It runs after
// every count transition and re-reads the count under timerMu, so whichever
// transition lands last decides the final state.
func (e *engine[T, B]) syncTimer() {
	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	if e.closed {
		return
	}

	want := e.count.Load() > 0
	switch {
	case want && !e.timerRunning:
		if err := e.timer.Start(e.period, e.tick); err != nil {
			e.log.Error("failed to start timer", "error", err)
			return
		}
		e.timerRunning = true
		e.rec.TimerToggled(true)
		e.log.Debug("timer started", "period", e.period)
	case !want && e.timerRunning:
		if err := e.timer.Pause(); err != nil {
			e.log.Error("failed to pause timer", "error", err)
			return
		}
		e.timerRunning = false
		e.rec.TimerToggled(false)
		e.log.Debug("timer paused")
	}
}
