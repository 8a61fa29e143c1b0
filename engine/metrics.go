package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/lixenwraith/vi-rally/engine"

// Metrics are the loop's otel instruments
type Metrics struct {
	ticks        metric.Int64Counter
	substeps     metric.Int64Counter
	skipped      metric.Int64Counter
	stepDuration metric.Float64Histogram
}

// NewMetrics creates instruments on meter, nil uses the global provider
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	m := &Metrics{}
	var err error
	if m.ticks, err = meter.Int64Counter("virally.loop.ticks",
		metric.WithDescription("Completed physics ticks")); err != nil {
		return nil, err
	}
	if m.substeps, err = meter.Int64Counter("virally.loop.substeps",
		metric.WithDescription("Physics substeps taken")); err != nil {
		return nil, err
	}
	if m.skipped, err = meter.Int64Counter("virally.loop.skipped",
		metric.WithDescription("Frames skipped after a tick error")); err != nil {
		return nil, err
	}
	if m.stepDuration, err = meter.Float64Histogram("virally.loop.step_duration",
		metric.WithDescription("Wall time of one tick"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return m, nil
}

// NopMetrics records nothing
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(meterName))
	return m
}

func (m *Metrics) recordTick(ctx context.Context, substeps int, took time.Duration) {
	m.ticks.Add(ctx, 1)
	m.substeps.Add(ctx, int64(substeps))
	m.stepDuration.Record(ctx, float64(took.Microseconds())/1000)
}

func (m *Metrics) recordSkip(ctx context.Context) {
	m.skipped.Add(ctx, 1)
}
