package decay

import (
	"fmt"
	"sync"
	"time"
)

// fakeTimer never ticks on its own; tests drive rotations with fire.
// Like a real timer that was paused mid-tick, fire still runs the last
// callback after Pause.
type fakeTimer struct {
	mu      sync.Mutex
	running bool
	closed  int
	starts  int
	pauses  int
	period  time.Duration
	onTick  func()
}

func (f *fakeTimer) Start(period time.Duration, onTick func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return fmt.Errorf("%w: already running", ErrInvalidOperation)
	}
	f.running = true
	f.starts++
	f.period = period
	f.onTick = onTick
	return nil
}

func (f *fakeTimer) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return fmt.Errorf("%w: not running", ErrInvalidOperation)
	}
	f.running = false
	f.pauses++
	return nil
}

func (f *fakeTimer) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeTimer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	f.running = false
	return nil
}

func (f *fakeTimer) fire(n int) {
	for range n {
		f.mu.Lock()
		cb := f.onTick
		f.mu.Unlock()
		if cb != nil {
			cb()
		}
	}
}

func (f *fakeTimer) stats() (starts, pauses int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.pauses
}

// decayLog collects decay notifications.
type decayLog[T any] struct {
	mu    sync.Mutex
	items []T
}

func (l *decayLog[T]) record(d Decayed[T]) {
	l.mu.Lock()
	l.items = append(l.items, d.Item)
	l.mu.Unlock()
}

func (l *decayLog[T]) snapshot() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]T(nil), l.items...)
}
