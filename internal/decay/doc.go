// Package decay implements single-process, in-memory collections whose
// entries expire on their own.
//
// Goals for this package:
//   - One background timer per collection, never one timer per item
//   - O(1) amortized eviction via a ring of time-sliced buckets
//   - Concurrency-safe, with a reader/writer lock per bucket instead of one global lock
//   - No periodic work while a collection is empty
//   - Stop the timer goroutine on Close; no rotation or new notification starts afterwards
//
// The lifespan is split into a fixed number of steps. Every lifespan/steps
// the ring rotates: the oldest bucket is dropped and an empty one becomes the
// active bucket for new inserts. An item therefore lives for somewhere in
// (lifespan - lifespan/steps, lifespan]. More steps buy precision at the cost
// of more buckets to scan on lookups.
//
// Three collections share the engine:
//   - Bag: duplicates allowed
//   - Set: adding an existing item restarts its lifetime
//   - Map: unique keys, writing an existing key restarts its lifetime
package decay
