package decay

import (
	"fmt"
	"iter"
	"reflect"
	"sync"
	"time"
)

// Map is a key/value store whose entries expire after the lifespan. Keys are
// unique across the whole ring; writing an existing key with Set restarts
// that entry's lifetime.
//
// Every keyed operation scans the buckets one at a time under that bucket's
// own read/write lock, so readers of one bucket never wait on writers of
// another.
type Map[K comparable, V any] struct {
	*engine[Entry[K, V], *entryBucket[K, V]]

	// writeMu serializes Set and Add so a key can never be inserted twice.
	// Lookups and Remove do not take it.
	writeMu sync.Mutex
}

// NewMap constructs an empty Map.
func NewMap[K comparable, V any](lifespan time.Duration, opts ...Option) (*Map[K, V], error) {
	e, err := newEngine[Entry[K, V]](lifespan, newEntryBucket[K, V], opts)
	if err != nil {
		return nil, err
	}
	return &Map[K, V]{engine: e}, nil
}

// Get returns the value stored under key. It fails with ErrInvalidArgument
// for a nil key and ErrKeyNotFound when the key is absent. O(steps).
func (m *Map[K, V]) Get(key K) (V, error) {
	var zero V
	if isNilKey(key) {
		return zero, fmt.Errorf("%w: nil key", ErrInvalidArgument)
	}
	v, ok := m.lookup(key)
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}
	return v, nil
}

// TryGet returns the value stored under key and whether it was found.
// A nil key is never found.
func (m *Map[K, V]) TryGet(key K) (V, bool) {
	if isNilKey(key) {
		var zero V
		return zero, false
	}
	return m.lookup(key)
}

// ContainsKey reports whether key is present. A nil key is never present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	if isNilKey(key) {
		return false
	}
	return m.containsKey(key)
}

// Set stores value under key in the active bucket, replacing any existing
// entry. The entry's lifetime starts over; Len is unchanged when the key
// already existed.
func (m *Map[K, V]) Set(key K, value V) error {
	if isNilKey(key) {
		return fmt.Errorf("%w: nil key", ErrInvalidArgument)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.removeKey(key)
	m.add(Entry[K, V]{Key: key, Value: value})
	return nil
}

// Add stores value under key. It fails with ErrDuplicateKey if the key is
// already present anywhere in the ring.
func (m *Map[K, V]) Add(key K, value V) error {
	if isNilKey(key) {
		return fmt.Errorf("%w: nil key", ErrInvalidArgument)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	if m.containsKey(key) {
		return fmt.Errorf("%w: %v", ErrDuplicateKey, key)
	}
	m.add(Entry[K, V]{Key: key, Value: value})
	return nil
}

// Remove drops the entry stored under key and reports whether there was one.
func (m *Map[K, V]) Remove(key K) bool {
	if isNilKey(key) {
		return false
	}
	return m.removeKey(key)
}

// Keys returns a point-in-time snapshot of the keys, oldest first.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	m.scan(func(b *entryBucket[K, V]) bool {
		for el := b.order.Front(); el != nil; el = el.Next() {
			keys = append(keys, el.Value.(*Entry[K, V]).Key)
		}
		return false
	})
	return keys
}

// Values returns a point-in-time snapshot of the values, oldest first.
// Values may repeat; only keys are unique.
func (m *Map[K, V]) Values() []V {
	values := make([]V, 0, m.Len())
	m.scan(func(b *entryBucket[K, V]) bool {
		for el := b.order.Front(); el != nil; el = el.Next() {
			values = append(values, el.Value.(*Entry[K, V]).Value)
		}
		return false
	})
	return values
}

// All iterates the entries, oldest first.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for e := range m.all() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

func (m *Map[K, V]) lookup(key K) (v V, ok bool) {
	m.scan(func(b *entryBucket[K, V]) bool {
		v, ok = b.get(key)
		return ok
	})
	return v, ok
}

func (m *Map[K, V]) containsKey(key K) bool {
	return m.scan(func(b *entryBucket[K, V]) bool { return b.has(key) })
}

func (m *Map[K, V]) removeKey(key K) bool {
	return m.removeFirst(
		func(b *entryBucket[K, V]) bool { return b.has(key) },
		func(b *entryBucket[K, V]) bool { return b.delete(key) },
	)
}

// isNilKey reports whether key is a nil pointer, channel or interface value.
func isNilKey[K comparable](key K) bool {
	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
