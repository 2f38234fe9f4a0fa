package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

const instrumentationName = "github.com/teslashibe/go-arview/pkg/app"

// metrics instruments the frame loop. Instruments live on a private SDK
// provider whose manual reader backs /api/metrics.
type metrics struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader

	processed metric.Int64Counter
	skipped   metric.Int64Counter
	markers   metric.Int64Counter
	acquired  metric.Int64Counter
	detect    metric.Float64Histogram
	visible   metric.Int64ObservableGauge

	visibleNow atomic.Int64
}

func newMetrics() (*metrics, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := provider.Meter(instrumentationName)
	mt := &metrics{provider: provider, reader: reader}

	var err error
	mt.processed, err = m.Int64Counter("arview.frames.processed",
		metric.WithDescription("Frames run through detection and association"))
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	mt.skipped, err = m.Int64Counter("arview.frames.skipped",
		metric.WithDescription("Loop ticks with no new frame"))
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	mt.markers, err = m.Int64Counter("arview.markers.detected",
		metric.WithDescription("Markers returned by the detector"))
	if err != nil {
		return nil, fmt.Errorf("creating markers counter: %w", err)
	}

	mt.acquired, err = m.Int64Counter("arview.objects.acquired",
		metric.WithDescription("Lost to acquired transitions"))
	if err != nil {
		return nil, fmt.Errorf("creating acquired counter: %w", err)
	}

	mt.detect, err = m.Float64Histogram("arview.detect.duration",
		metric.WithDescription("Marker detection time"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("creating detect histogram: %w", err)
	}

	mt.visible, err = m.Int64ObservableGauge("arview.objects.visible",
		metric.WithDescription("Objects visible in the last processed frame"))
	if err != nil {
		return nil, fmt.Errorf("creating visible gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(mt.visible, mt.visibleNow.Load())
			return nil
		},
		mt.visible,
	)
	if err != nil {
		return nil, fmt.Errorf("registering visible callback: %w", err)
	}

	return mt, nil
}

func (m *metrics) frameSkipped(ctx context.Context) {
	m.skipped.Add(ctx, 1)
}

func (m *metrics) detected(ctx context.Context, dictionary string, markers int, took time.Duration) {
	attrs := metric.WithAttributes(attribute.String("dictionary", dictionary))
	m.detect.Record(ctx, float64(took.Microseconds())/1000, attrs)
	m.markers.Add(ctx, int64(markers), attrs)
}

func (m *metrics) frameProcessed(ctx context.Context, acquired, visible int) {
	m.processed.Add(ctx, 1)
	if acquired > 0 {
		m.acquired.Add(ctx, int64(acquired))
	}
	m.visibleNow.Store(int64(visible))
}

// snapshot collects every instrument into a flat name to value map.
// Counters are summed across attributes, the gauge reports its last value
// and the histogram contributes <name>.count and <name>.sum.
func (m *metrics) snapshot(ctx context.Context) (map[string]float64, error) {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return nil, fmt.Errorf("collecting metrics: %w", err)
	}

	out := make(map[string]float64)
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				out[md.Name] = float64(total)
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					out[md.Name] = float64(dp.Value)
				}
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				out[md.Name+".count"] = float64(count)
				out[md.Name+".sum"] = sum
			}
		}
	}
	return out, nil
}

func (m *metrics) shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
