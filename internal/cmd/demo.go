package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"decaying/internal/config"
	"decaying/internal/decay"
)

func NewDemoCommand(conf *config.Config) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:     "demo",
		Short:   "Walk through bag, set and map decay with short lifespans",
		Example: "decaying demo --lifespan=3s --steps=3 --items=5",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.Context(), conf)
		},
	}

	if err := conf.BindFlags(cmd.Flags(), config.DemoOptions); err != nil {
		return nil, err
	}

	return cmd, nil
}

func runDemo(ctx context.Context, conf *config.Config) error {
	setupLogger(conf.DemoDebugEnabled())

	lifespan, steps, n := conf.DemoLifespan(), conf.DemoSteps(), conf.DemoItems()
	if n <= 0 {
		return fmt.Errorf("items must be positive, got %d", n)
	}
	slog.Info("decay demo starting", "lifespan", lifespan, "steps", steps, "items", n)

	opts := []decay.Option{decay.WithSteps(steps)}

	bag, err := decay.NewBag[int](lifespan, opts...)
	if err != nil {
		return fmt.Errorf("failed to create bag: %w", err)
	}
	defer bag.Close()

	set, err := decay.NewSet[string](lifespan, opts...)
	if err != nil {
		return fmt.Errorf("failed to create set: %w", err)
	}
	defer set.Close()

	m, err := decay.NewMap[string, int](lifespan, opts...)
	if err != nil {
		return fmt.Errorf("failed to create map: %w", err)
	}
	defer m.Close()

	// done closes once every collection is empty after setup finished.
	done := make(chan struct{})
	var armed atomic.Bool
	var once sync.Once
	drained := func() {
		if armed.Load() && bag.Len()+set.Len()+m.Len() == 0 {
			once.Do(func() { close(done) })
		}
	}

	bag.Subscribe(func(d decay.Decayed[int]) {
		slog.Info("bag item decayed", "item", d.Item, "remaining", bag.Len())
		drained()
	})
	set.Subscribe(func(d decay.Decayed[string]) {
		slog.Info("set item decayed", "item", d.Item, "remaining", set.Len())
		drained()
	})
	m.Subscribe(func(d decay.Decayed[decay.Entry[string, int]]) {
		slog.Info("map entry decayed", "key", d.Item.Key, "value", d.Item.Value, "remaining", m.Len())
		drained()
	})

	// -------------------------------------------------------------------
	// 1) Bag: duplicates decay independently
	// -------------------------------------------------------------------
	for i := range n {
		bag.Add(i)
	}
	bag.Add(0)
	slog.Info("bag filled", "len", bag.Len(), "items", bag.Items())

	// -------------------------------------------------------------------
	// 2) Map: unique keys, Add rejects duplicates
	// -------------------------------------------------------------------
	for i := range n {
		if err := m.Set(fmt.Sprintf("k%d", i), i); err != nil {
			return err
		}
	}
	if err := m.Add("k0", -1); errors.Is(err, decay.ErrDuplicateKey) {
		slog.Info("map rejected duplicate key", "error", err)
	}
	slog.Info("map filled", "len", m.Len(), "keys", m.Keys())

	// -------------------------------------------------------------------
	// 3) Set: re-adding an item restarts its lifetime
	// -------------------------------------------------------------------
	set.Add("a")
	set.Add("b")
	if !sleep(ctx, lifespan/time.Duration(max(steps, 1))) {
		slog.Info("received shutdown signal")
		return nil
	}
	set.Add("a")
	slog.Info("set item refreshed", "item", "a", "items", set.Items())

	armed.Store(true)
	drained()

	wait := time.NewTimer(5 * lifespan)
	defer wait.Stop()

	select {
	case <-ctx.Done():
		slog.Info("received shutdown signal")
		return nil
	case <-wait.C:
		return fmt.Errorf("items still pending after %s: bag=%d set=%d map=%d", 5*lifespan, bag.Len(), set.Len(), m.Len())
	case <-done:
	}

	slog.Info("all items decayed", "bag", bag.Len(), "set", set.Len(), "map", m.Len())
	return nil
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
