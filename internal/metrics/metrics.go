package metrics

import (
	"context"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type Metrics struct {
	HTTPRequests      metric.Int64Counter
	HTTPDuration      metric.Float64Histogram
	StoreOperations   metric.Int64Counter
	EventsPublished   metric.Int64Counter
	ActiveConnections metric.Int64UpDownCounter
}

// Setup builds the meter provider on a fresh registry and returns the
// handler serving it. Each call is independent, so tests may call it freely.
func Setup(serviceName string) (*Metrics, http.Handler, error) {
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	m := &Metrics{}

	m.HTTPRequests, err = meter.Int64Counter(
		"blog_http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPDuration, err = meter.Float64Histogram(
		"blog_http_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StoreOperations, err = meter.Int64Counter(
		"blog_store_operations_total",
		metric.WithDescription("Total number of storage operations by outcome"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.EventsPublished, err = meter.Int64Counter(
		"blog_events_published_total",
		metric.WithDescription("Total number of domain events published"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ActiveConnections, err = meter.Int64UpDownCounter(
		"blog_stream_connections",
		metric.WithDescription("Number of active WebSocket and SSE connections"),
	)
	if err != nil {
		return nil, nil, err
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m, handler, nil
}

func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	labels := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)

	m.HTTPRequests.Add(ctx, 1, labels)
	m.HTTPDuration.Record(ctx, duration.Seconds(), labels)
}

// RecordStoreOperation counts one storage call. outcome is "ok" or "error".
func (m *Metrics) RecordStoreOperation(ctx context.Context, backend, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordEventPublished(ctx context.Context, topic string) {
	m.EventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("topic", topic)))
}

func (m *Metrics) IncrementConnections(ctx context.Context, kind string) {
	m.ActiveConnections.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) DecrementConnections(ctx context.Context, kind string) {
	m.ActiveConnections.Add(ctx, -1, metric.WithAttributes(attribute.String("kind", kind)))
}
