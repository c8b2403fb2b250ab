package transcriptserver

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Metrics is the Prometheus view of the service: request latencies plus
// the engine's operational counters. Each instance owns its registry.
type Metrics struct {
	registry      *promclient.Registry
	provider      *metric.MeterProvider
	apiTimeMetric api.Float64Histogram
}

// SetupMetrics bootstraps the OpenTelemetry pipeline with a Prometheus exporter.
// Call Shutdown when done.
func SetupMetrics() (*Metrics, error) {
	reg := promclient.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	meter := provider.Meter("github.com/anatolykoptev/go_transcript")

	apiTimeMetric, err := meter.Float64Histogram("api_call",
		api.WithDescription("api call latency"), api.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	counters := make(map[string]api.Int64ObservableCounter)
	observables := make([]api.Observable, 0, len(engine.GetMetrics()))
	for name := range engine.GetMetrics() {
		ctr, err := meter.Int64ObservableCounter("gotranscript_"+name)
		if err != nil {
			return nil, err
		}
		counters[name] = ctr
		observables = append(observables, ctr)
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o api.Observer) error {
		for name, v := range engine.GetMetrics() {
			if ctr, ok := counters[name]; ok {
				o.ObserveInt64(ctr, v)
			}
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, err
	}

	return &Metrics{registry: reg, provider: provider, apiTimeMetric: apiTimeMetric}, nil
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records the latency of every request except /metrics itself.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		method := c.Method()
		start := time.Now()
		err := c.Next()
		// Route path, not raw path, keeps label cardinality bounded.
		m.ObserveAPICall(method, c.Route().Path, time.Since(start).Seconds())
		return err
	}
}

// ObserveAPICall records one request duration in seconds.
func (m *Metrics) ObserveAPICall(method, path string, seconds float64) {
	m.apiTimeMetric.Record(context.Background(), seconds, api.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
	))
}
