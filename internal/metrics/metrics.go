// Package metrics configures the OpenTelemetry meter provider and serves
// Prometheus scrapes.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	metric2 "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// Provider is the installed meter provider plus its Prometheus registry.
type Provider struct {
	*metric2.MeterProvider
	registry *promclient.Registry
}

var _ MetricProvider = (*Provider)(nil)

func getReaders(ctx context.Context, cfg Config, registry *promclient.Registry) ([]metric2.Reader, error) {
	var readers []metric2.Reader

	for _, provider := range cfg.Provider {
		switch provider.Provider {
		case PrometheusProvider:
			promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
			if err != nil {
				return nil, fmt.Errorf("prometheus exporter: %w", err)
			}

			readers = append(readers, promExporter)
		case OtelCollector:
			opts := []otlpmetricgrpc.Option{
				otlpmetricgrpc.WithEndpointURL(provider.Endpoint),
				otlpmetricgrpc.WithHeaders(provider.Headers),
			}

			if provider.Insecure {
				opts = append(opts, otlpmetricgrpc.WithInsecure())
			}

			exp, err := otlpmetricgrpc.New(ctx, opts...)
			if err != nil {
				return nil, fmt.Errorf("otlp metric exporter: %w", err)
			}

			readers = append(readers, metric2.NewPeriodicReader(exp))
		}
	}

	return readers, nil
}

// NewMetricProvider builds the meter provider and installs it globally.
func NewMetricProvider(options ...OptionFn) (*Provider, error) {
	ctx := context.Background()

	var cfg Config

	for _, opt := range options {
		cfg = opt(cfg)
	}

	registry := promclient.NewRegistry()

	readers, err := getReaders(ctx, cfg, registry)
	if err != nil {
		return nil, err
	}

	var metricsOps []metric2.Option

	for _, reader := range readers {
		metricsOps = append(metricsOps, metric2.WithReader(reader))
	}

	metricsOps = append(metricsOps, metric2.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
	))

	meterProvider := metric2.NewMeterProvider(metricsOps...)

	otel.SetMeterProvider(meterProvider)

	return &Provider{MeterProvider: meterProvider, registry: registry}, nil
}

// Handler serves the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NewPrometheusServer returns a server exposing /metrics. The caller runs
// ListenAndServe and Shutdown.
func NewPrometheusServer(p *Provider, opt ...PromOptionFn) *http.Server {
	cfg := PromServerConfig{port: "2223"}

	for _, o := range opt {
		cfg = o(cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
