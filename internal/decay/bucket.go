package decay

import (
	"container/list"
	"slices"
)

// bucket holds one time slice of items. Buckets are not safe for concurrent
// use; the ring slot that owns a bucket guards it.
type bucket[T any] interface {
	// add inserts item and reports whether the bucket grew.
	add(item T) bool
	len() int
	// items returns a copy of the contents in insertion order.
	items() []T
}

// listBucket is an insertion-ordered multiset.
type listBucket[T comparable] struct {
	elems []T
}

func newListBucket[T comparable]() *listBucket[T] {
	return &listBucket[T]{}
}

func (b *listBucket[T]) add(item T) bool {
	b.elems = append(b.elems, item)
	return true
}

func (b *listBucket[T]) len() int { return len(b.elems) }

func (b *listBucket[T]) items() []T { return slices.Clone(b.elems) }

func (b *listBucket[T]) contains(item T) bool {
	return slices.Contains(b.elems, item)
}

// remove drops the first occurrence of item.
func (b *listBucket[T]) remove(item T) bool {
	i := slices.Index(b.elems, item)
	if i < 0 {
		return false
	}
	b.elems = slices.Delete(b.elems, i, i+1)
	return true
}

// Entry is a key/value pair stored in a Map.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// keyedBucket is an insertion-ordered map: the index gives O(1) key lookup
// and the list keeps enumeration order stable.
type keyedBucket[K comparable, V any] struct {
	index map[K]*list.Element
	order *list.List // Front = oldest insert
}

func newKeyedBucket[K comparable, V any]() keyedBucket[K, V] {
	return keyedBucket[K, V]{
		index: make(map[K]*list.Element),
		order: list.New(),
	}
}

// put inserts key. An existing key keeps its position and count; only the
// value is replaced.
func (b *keyedBucket[K, V]) put(key K, value V) bool {
	if el, ok := b.index[key]; ok {
		el.Value.(*Entry[K, V]).Value = value
		return false
	}
	b.index[key] = b.order.PushBack(&Entry[K, V]{Key: key, Value: value})
	return true
}

func (b *keyedBucket[K, V]) get(key K) (V, bool) {
	el, ok := b.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*Entry[K, V]).Value, true
}

func (b *keyedBucket[K, V]) has(key K) bool {
	_, ok := b.index[key]
	return ok
}

func (b *keyedBucket[K, V]) delete(key K) bool {
	el, ok := b.index[key]
	if !ok {
		return false
	}
	delete(b.index, key)
	b.order.Remove(el)
	return true
}

func (b *keyedBucket[K, V]) len() int { return len(b.index) }

func (b *keyedBucket[K, V]) entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*Entry[K, V]))
	}
	return out
}

// setBucket stores each item at most once.
type setBucket[T comparable] struct {
	keyedBucket[T, struct{}]
}

func newSetBucket[T comparable]() *setBucket[T] {
	return &setBucket[T]{keyedBucket: newKeyedBucket[T, struct{}]()}
}

func (b *setBucket[T]) add(item T) bool { return b.put(item, struct{}{}) }

func (b *setBucket[T]) items() []T {
	out := make([]T, 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*Entry[T, struct{}]).Key)
	}
	return out
}

// entryBucket is the Map bucket.
type entryBucket[K comparable, V any] struct {
	keyedBucket[K, V]
}

func newEntryBucket[K comparable, V any]() *entryBucket[K, V] {
	return &entryBucket[K, V]{keyedBucket: newKeyedBucket[K, V]()}
}

func (b *entryBucket[K, V]) add(e Entry[K, V]) bool { return b.put(e.Key, e.Value) }

func (b *entryBucket[K, V]) items() []Entry[K, V] { return b.entries() }
