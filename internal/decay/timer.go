package decay

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Timer is the clock that drives rotation. It invokes onTick on its own
// goroutine once per period until Pause or Close.
//
// Start fails with ErrInvalidOperation if the timer is already running, and
// Pause fails with ErrInvalidOperation if it is not. Close must be idempotent
// and stop any pending ticks.
type Timer interface {
	Start(period time.Duration, onTick func()) error
	Pause() error
	Running() bool
	Close() error
}

// TickerTimer is the default Timer, backed by time.Ticker.
//
// Every Start spawns one goroutine that lives until the matching Pause or
// Close. Neither waits for an in-flight tick to return, so both may be called
// from inside onTick. The superseded loop checks its start generation before
// each tick and stops at the first one after they return.
type TickerTimer struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64 // bumped by every Start, Pause and Close
	closed bool
}

// NewTickerTimer returns an idle TickerTimer.
func NewTickerTimer() *TickerTimer {
	return &TickerTimer{}
}

// Start begins ticking every period. The first tick arrives one full period
// after Start.
func (t *TickerTimer) Start(period time.Duration, onTick func()) error {
	if period <= 0 {
		return fmt.Errorf("%w: timer period must be positive, got %s", ErrInvalidArgument, period)
	}
	if onTick == nil {
		return fmt.Errorf("%w: nil tick callback", ErrInvalidArgument)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("%w: timer is closed", ErrInvalidOperation)
	}
	if t.cancel != nil {
		return fmt.Errorf("%w: timer is already running", ErrInvalidOperation)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.gen++
	go t.tickLoop(ctx, t.gen, period, onTick)
	return nil
}

// Pause stops the ticks started by the last Start.
func (t *TickerTimer) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel == nil {
		return fmt.Errorf("%w: timer is not running", ErrInvalidOperation)
	}
	t.cancel()
	t.cancel = nil
	t.gen++
	return nil
}

// Running reports whether the timer is between a Start and a Pause.
func (t *TickerTimer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// Close stops the timer for good. Close is safe to call multiple times.
func (t *TickerTimer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	t.gen++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	return nil
}

// current reports whether gen is still the generation of a running timer.
func (t *TickerTimer) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil && t.gen == gen
}

// tickLoop owns one ticker for the lifetime of ctx. A loop whose generation
// was superseded by Pause, Close or a later Start never calls onTick again.
func (t *TickerTimer) tickLoop(ctx context.Context, gen uint64, period time.Duration, onTick func()) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.current(gen) {
				return
			}
			onTick()
		}
	}
}
