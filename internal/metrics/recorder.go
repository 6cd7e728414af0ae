// Package metrics exports decay.Recorder events as OpenTelemetry instruments.
// The serve command installs a Prometheus-backed MeterProvider, so the
// instruments end up on /metrics.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"decaying/internal/decay"
)

const scopeName = "decaying/internal/metrics"

// Recorder implements decay.Recorder. All instruments carry a "collection"
// attribute so several collections can share one MeterProvider.
type Recorder struct {
	attrs metric.MeasurementOption

	added        metric.Int64Counter
	removed      metric.Int64Counter
	decayed      metric.Int64Counter
	rotations    metric.Int64Counter
	timerStarts  metric.Int64Counter
	items        metric.Int64UpDownCounter
	timerRunning metric.Int64UpDownCounter
}

var _ decay.Recorder = (*Recorder)(nil)

// NewRecorder creates the instruments on mp. A nil mp falls back to the
// global provider.
func NewRecorder(mp metric.MeterProvider, collection string) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(scopeName)

	r := &Recorder{
		attrs: metric.WithAttributeSet(attribute.NewSet(attribute.String("collection", collection))),
	}

	var err error
	if r.added, err = meter.Int64Counter("decay.items.added",
		metric.WithDescription("Items inserted")); err != nil {
		return nil, fmt.Errorf("create added counter: %w", err)
	}
	if r.removed, err = meter.Int64Counter("decay.items.removed",
		metric.WithDescription("Items removed explicitly or by Clear")); err != nil {
		return nil, fmt.Errorf("create removed counter: %w", err)
	}
	if r.decayed, err = meter.Int64Counter("decay.items.decayed",
		metric.WithDescription("Items evicted by rotation")); err != nil {
		return nil, fmt.Errorf("create decayed counter: %w", err)
	}
	if r.rotations, err = meter.Int64Counter("decay.rotations",
		metric.WithDescription("Timer-driven ring rotations")); err != nil {
		return nil, fmt.Errorf("create rotations counter: %w", err)
	}
	if r.timerStarts, err = meter.Int64Counter("decay.timer.starts",
		metric.WithDescription("Transitions of the rotation timer from paused to running")); err != nil {
		return nil, fmt.Errorf("create timer starts counter: %w", err)
	}
	if r.items, err = meter.Int64UpDownCounter("decay.items",
		metric.WithDescription("Items currently held")); err != nil {
		return nil, fmt.Errorf("create items gauge: %w", err)
	}
	if r.timerRunning, err = meter.Int64UpDownCounter("decay.timer.running",
		metric.WithDescription("1 while the rotation timer runs")); err != nil {
		return nil, fmt.Errorf("create timer running gauge: %w", err)
	}

	return r, nil
}

// Recorder callbacks come from inside the collection with no request in
// flight, so there is no caller context to propagate.

func (r *Recorder) Added(n int) {
	ctx := context.Background()
	r.added.Add(ctx, int64(n), r.attrs)
	r.items.Add(ctx, int64(n), r.attrs)
}

func (r *Recorder) Removed(n int) {
	ctx := context.Background()
	r.removed.Add(ctx, int64(n), r.attrs)
	r.items.Add(ctx, -int64(n), r.attrs)
}

func (r *Recorder) Decayed(n int) {
	ctx := context.Background()
	r.decayed.Add(ctx, int64(n), r.attrs)
	r.items.Add(ctx, -int64(n), r.attrs)
}

func (r *Recorder) Rotated() {
	r.rotations.Add(context.Background(), 1, r.attrs)
}

func (r *Recorder) TimerToggled(running bool) {
	ctx := context.Background()
	if running {
		r.timerStarts.Add(ctx, 1, r.attrs)
		r.timerRunning.Add(ctx, 1, r.attrs)
		return
	}
	r.timerRunning.Add(ctx, -1, r.attrs)
}
