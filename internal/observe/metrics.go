// Package observe provides pipeline metrics through the OpenTelemetry
// Metrics API, with a Prometheus exporter bridge for scraping.
//
// Tests should use [NewMetrics] with their own [metric.MeterProvider];
// [DefaultMetrics] binds to the global provider, which is a no-op unless
// [InitProvider] has run.
package observe

import (
	"context"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/olivier-w/pitchtrace"

// Metrics holds the pipeline instruments. All fields are safe for concurrent
// use.
type Metrics struct {
	// Ticks counts scheduled pipeline passes.
	Ticks metric.Int64Counter

	// Samples counts appended samples. Use with attribute:
	//   attribute.String("outcome", ...)
	Samples metric.Int64Counter

	// TickDuration tracks how long one pass takes.
	TickDuration metric.Float64Histogram

	// Loudness records the measured level of each frame, finite values only.
	Loudness metric.Float64Histogram
}

// tickBuckets are sized around the 50ms scheduling period.
var tickBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

var loudnessBuckets = []float64{
	-100, -80, -60, -50, -40, -30, -20, -10, 0,
}

// NewMetrics creates the instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Ticks, err = m.Int64Counter("pitchtrace.pipeline.ticks",
		metric.WithDescription("Total pipeline passes."),
	); err != nil {
		return nil, err
	}
	if met.Samples, err = m.Int64Counter("pitchtrace.pipeline.samples",
		metric.WithDescription("Samples appended to the window by gate outcome."),
	); err != nil {
		return nil, err
	}
	if met.TickDuration, err = m.Float64Histogram("pitchtrace.pipeline.tick.duration",
		metric.WithDescription("Time spent in one pipeline pass."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(tickBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Loudness, err = m.Float64Histogram("pitchtrace.pipeline.loudness",
		metric.WithDescription("Measured frame loudness."),
		metric.WithUnit("dB"),
		metric.WithExplicitBucketBoundaries(loudnessBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level instance bound to
// [otel.GetMeterProvider]. Panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTick records one pass: its duration, the frame loudness and the
// outcome of the appended sample.
func (m *Metrics) RecordTick(ctx context.Context, took time.Duration, db float64, outcome string) {
	m.Ticks.Add(ctx, 1)
	m.TickDuration.Record(ctx, took.Seconds())
	if !math.IsInf(db, 0) && !math.IsNaN(db) {
		m.Loudness.Record(ctx, db)
	}
	m.Samples.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
