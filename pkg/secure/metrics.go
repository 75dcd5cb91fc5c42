package secure

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	endpointKindServer = "server"
	endpointKindClient = "client"
)

var (
	metricsOnce     sync.Once
	metricsInitErr  error
	metricsInstance *metricsCollector
)

// metricsCollector records endpoint-build outcomes through the OpenTelemetry
// metric API. It is process-wide and write-only; a missing meter provider
// degrades to no-ops.
type metricsCollector struct {
	endpointBuilds       metric.Int64Counter
	contextBuildDuration metric.Float64Histogram
}

func getMetricsCollector() (*metricsCollector, error) {
	metricsOnce.Do(func() {
		metricsInstance, metricsInitErr = newMetricsCollector()
	})
	return metricsInstance, metricsInitErr
}

func newMetricsCollector() (*metricsCollector, error) {
	meter := otel.GetMeterProvider().Meter("thrift.transport.secure")

	collector := &metricsCollector{}

	var err error
	collector.endpointBuilds, err = meter.Int64Counter(
		"secure_endpoint_builds_total",
		metric.WithDescription("Total number of secure endpoint creation attempts"),
		metric.WithUnit("{build}"),
	)
	if err != nil {
		return nil, err
	}

	collector.contextBuildDuration, err = meter.Float64Histogram(
		"secure_context_build_duration_seconds",
		metric.WithDescription("Time spent loading stores and deriving a secure context"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

func recordEndpointBuild(ctx context.Context, kind string, success bool) {
	collector, err := getMetricsCollector()
	if err != nil || collector == nil {
		return
	}
	collector.endpointBuilds.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.Bool("success", success),
		))
}

func recordContextBuild(ctx context.Context, d time.Duration, success bool) {
	collector, err := getMetricsCollector()
	if err != nil || collector == nil {
		return
	}
	collector.contextBuildDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.Bool("success", success)))
}
