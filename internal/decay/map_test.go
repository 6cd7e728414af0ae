package decay

import (
	"errors"
	"maps"
	"slices"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func newTestMap(t *testing.T, steps int) (*Map[int, string], *fakeTimer) {
	t.Helper()
	ft := &fakeTimer{}
	m, err := NewMap[int, string](time.Duration(steps)*time.Second, WithSteps(steps), WithTimer(ft))
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m, ft
}

func TestMap_GetMissingKey(t *testing.T) {
	m, _ := newTestMap(t, 5)

	if _, err := m.Get(1); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get error = %v, want ErrKeyNotFound", err)
	}
	if _, ok := m.TryGet(1); ok {
		t.Fatal("TryGet should miss")
	}
	if m.ContainsKey(1) {
		t.Fatal("ContainsKey should miss")
	}
}

func TestMap_NilKey(t *testing.T) {
	ft := &fakeTimer{}
	m, err := NewMap[*int, string](5*time.Second, WithTimer(ft))
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	defer m.Close()

	if _, err := m.Get(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Get(nil) error = %v, want ErrInvalidArgument", err)
	}
	if err := m.Set(nil, "v"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Set(nil) error = %v, want ErrInvalidArgument", err)
	}
	if err := m.Add(nil, "v"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Add(nil) error = %v, want ErrInvalidArgument", err)
	}
	if m.ContainsKey(nil) || m.Remove(nil) {
		t.Fatal("nil key must never be present")
	}
	if _, ok := m.TryGet(nil); ok {
		t.Fatal("TryGet(nil) should miss")
	}
	if m.Len() != 0 || ft.Running() {
		t.Fatal("rejected writes must not change the map")
	}

	k := 7
	if err := m.Set(&k, "seven"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, err := m.Get(&k); err != nil || v != "seven" {
		t.Fatalf("Get = %q, %v", v, err)
	}
}

func TestMap_InterfaceKeys(t *testing.T) {
	ft := &fakeTimer{}
	m, err := NewMap[any, int](5*time.Second, WithTimer(ft))
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	defer m.Close()

	if err := m.Set(nil, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Set(nil) error = %v, want ErrInvalidArgument", err)
	}
	if err := m.Set("a", 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := m.Set(2, 2); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := m.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
}

func TestMap_GetAfterRotation(t *testing.T) {
	m, ft := newTestMap(t, 5)

	if err := m.Add(1, "one"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ft.fire(1)

	v, err := m.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != "one" {
		t.Fatalf("Get = %q, want one", v)
	}
}

func TestMap_AddDuplicateKey(t *testing.T) {
	m, ft := newTestMap(t, 3)

	if err := m.Add(1, "a"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	ft.fire(1)
	if err := m.Add(1, "b"); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("Add duplicate error = %v, want ErrDuplicateKey", err)
	}
	if v, _ := m.TryGet(1); v != "a" {
		t.Fatalf("value = %q, want a", v)
	}
	if got := m.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestMap_SetInsertsMissingKey(t *testing.T) {
	m, ft := newTestMap(t, 5)

	if err := m.Set(1, "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ft.fire(1)
	if got := m.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
}

func TestMap_SetResetsLifetime(t *testing.T) {
	m, ft := newTestMap(t, 3)
	var log decayLog[Entry[int, string]]
	m.Subscribe(log.record)

	if err := m.Set(1, "old"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ft.fire(2)
	if err := m.Set(1, "new"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := m.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}

	ft.fire(2)
	if got := m.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1", got)
	}
	if v, err := m.Get(1); err != nil || v != "new" {
		t.Fatalf("Get = %q, %v; want new", v, err)
	}
	if got := log.snapshot(); len(got) != 0 {
		t.Fatalf("unexpected decays: %v", got)
	}

	ft.fire(1)
	if m.ContainsKey(1) {
		t.Fatal("entry should decay three rotations after the reset")
	}
	want := []Entry[int, string]{{Key: 1, Value: "new"}}
	if got := log.snapshot(); !slices.Equal(got, want) {
		t.Fatalf("decayed = %v, want %v", got, want)
	}
}

func TestMap_Remove(t *testing.T) {
	m, ft := newTestMap(t, 5)

	for k := 1; k <= 3; k++ {
		if err := m.Add(k, "v"); err != nil {
			t.Fatalf("Add: %v", err)
		}
		ft.fire(1)
	}

	if !m.Remove(2) {
		t.Fatal("Remove should succeed")
	}
	if m.Remove(2) {
		t.Fatal("second Remove should report false")
	}
	if got := m.Len(); got != 2 {
		t.Fatalf("Len = %d, want 2", got)
	}
	if !m.ContainsKey(1) || !m.ContainsKey(3) || m.ContainsKey(2) {
		t.Fatal("unexpected key set after Remove")
	}
}

func TestMap_KeysAndValuesSnapshot(t *testing.T) {
	m, ft := newTestMap(t, 3)

	_ = m.Set(1, "item 1")
	ft.fire(1)
	_ = m.Set(2, "item 2")
	_ = m.Set(3, "item 1")

	if got := m.Keys(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("Keys = %v, want [1 2 3]", got)
	}
	values := m.Values()
	if len(values) != 3 {
		t.Fatalf("len(Values) = %d, want 3", len(values))
	}
	dup := 0
	for _, v := range values {
		if v == "item 1" {
			dup++
		}
	}
	if dup != 2 {
		t.Fatalf("Values = %v, want item 1 twice", values)
	}

	keys := m.Keys()
	_ = m.Set(4, "later")
	if len(keys) != 3 {
		t.Fatal("Keys must be a snapshot, not a live view")
	}

	want := map[int]string{1: "item 1", 2: "item 2", 3: "item 1", 4: "later"}
	if got := maps.Collect(m.All()); !maps.Equal(got, want) {
		t.Fatalf("All = %v, want %v", got, want)
	}
}

func TestMap_ClearThenLookup(t *testing.T) {
	m, ft := newTestMap(t, 4)

	for k := range 6 {
		_ = m.Set(k, "v")
		if k%2 == 0 {
			ft.fire(1)
		}
	}
	m.Clear()

	if got := m.Len(); got != 0 {
		t.Fatalf("Len = %d, want 0", got)
	}
	for k := range 6 {
		if m.ContainsKey(k) {
			t.Fatalf("key %d present after Clear", k)
		}
	}
	if err := m.Add(0, "again"); err != nil {
		t.Fatalf("Add after Clear: %v", err)
	}
}

func TestMap_ConcurrentWritersAndRotation(t *testing.T) {
	m, ft := newTestMap(t, 4)

	const writers, ops, keySpace = 8, 400, 50

	var g errgroup.Group
	for w := range writers {
		g.Go(func() error {
			for i := range ops {
				key := (w*7 + i) % keySpace
				switch i % 4 {
				case 0:
					if err := m.Set(key, "set"); err != nil {
						return err
					}
				case 1:
					if err := m.Add(key, "add"); err != nil && !errors.Is(err, ErrDuplicateKey) {
						return err
					}
				case 2:
					_, _ = m.TryGet(key)
				case 3:
					m.Remove(key)
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		for range 200 {
			ft.fire(1)
			_ = m.Keys()
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	keys := m.Keys()
	seen := make(map[int]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("key %d present twice in %v", k, keys)
		}
		seen[k] = true
	}
	if got := m.Len(); got != len(keys) {
		t.Fatalf("Len = %d, but %d keys enumerated", got, len(keys))
	}
	if len(keys) > keySpace {
		t.Fatalf("%d keys, more than the %d written", len(keys), keySpace)
	}
}
