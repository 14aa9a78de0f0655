// Package apm configures the OpenTelemetry trace pipeline.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/gas-genie/internal/logger"
)

type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	ConsoleProvider  Provider = "console"
	EmptyProvider    Provider = "empty"
)

type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

// ExporterConfig locates the trace backend.
type ExporterConfig struct {
	ServiceName string
	Endpoint    string
	Headers     string // comma separated key=value pairs
}

type TracerOptions struct {
	exporter           sdktrace.SpanExporter
	tracerProviderName string
	useEmpty           bool
	err                error
}

type TracerOption func(*TracerOptions)

// WithProvider selects the exporter. Unknown providers fall back to empty.
func WithProvider(provider Provider, cfg ExporterConfig, log logger.LoggerInterface) TracerOption {
	switch provider {
	case ZipkinProvider:
		return useZipkin(cfg)
	case OTLPGRPCProvider:
		return useOTLPGRPC(cfg, log)
	case OTLPHTTPProvider:
		return useOTLPHTTP(cfg, log)
	case ConsoleProvider:
		return useConsole()
	case EmptyProvider:
		return useEmpty()
	}

	log.Warn(context.Background(), "TracerProvider not found, using EmptyProvider", "provider", provider)

	return useEmpty()
}

func useEmpty() TracerOption {
	return func(option *TracerOptions) {
		option.useEmpty = true
		option.tracerProviderName = string(EmptyProvider)
	}
}

func useConsole() TracerOption {
	return func(option *TracerOptions) {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			option.err = err
			return
		}

		option.exporter = exp
		option.tracerProviderName = string(ConsoleProvider)
	}
}

func useZipkin(cfg ExporterConfig) TracerOption {
	return func(option *TracerOptions) {
		exp, err := zipkin.New(cfg.Endpoint)
		if err != nil {
			option.err = err
			return
		}

		option.exporter = exp
		option.tracerProviderName = string(ZipkinProvider)
	}
}

func useOTLPGRPC(cfg ExporterConfig, log logger.LoggerInterface) TracerOption {
	return func(option *TracerOptions) {
		headers, err := ParseHeaders(cfg.Headers)
		if err != nil {
			option.err = err
			return
		}

		log.Info(context.Background(), "Initializing OTLP gRPC exporter", "endpoint", cfg.Endpoint)
		exp, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpointURL(cfg.Endpoint),
			otlptracegrpc.WithHeaders(headers),
		)
		if err != nil {
			option.err = err
			return
		}

		option.exporter = exp
		option.tracerProviderName = string(OTLPGRPCProvider)
	}
}

func useOTLPHTTP(cfg ExporterConfig, log logger.LoggerInterface) TracerOption {
	return func(option *TracerOptions) {
		headers, err := ParseHeaders(cfg.Headers)
		if err != nil {
			option.err = err
			return
		}

		log.Info(context.Background(), "Initializing OTLP HTTP/Protobuf exporter", "endpoint", cfg.Endpoint)
		exp, err := otlptracehttp.New(
			context.Background(),
			otlptracehttp.WithEndpointURL(cfg.Endpoint),
			otlptracehttp.WithHeaders(headers),
		)
		if err != nil {
			option.err = err
			return
		}

		option.exporter = exp
		option.tracerProviderName = string(OTLPHTTPProvider)
	}
}

// ParseHeaders turns "k1=v1,k2=v2" into a header map.
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return headers, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid otlp header %q, expected key=value", pair)
		}
		headers[k] = v
	}

	return headers, nil
}

// NewTraceProvider builds the tracer provider and installs it globally.
func NewTraceProvider(serviceName string, options ...TracerOption) (TraceProvider, error) {
	opts := &TracerOptions{}

	for _, opt := range options {
		opt(opts)
	}

	if opts.err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", opts.tracerProviderName, opts.err)
	}

	if opts.useEmpty || opts.exporter == nil {
		return NewEmptyTraceProvider(), nil
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("otel.provider", opts.tracerProviderName),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	// Set global trace provider
	otel.SetTracerProvider(tp)

	// Set trace propagator
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{
		tp,
	}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5) //nolint:gomnd
	defer cancel()

	if err := o.tp.Shutdown(ctx); err != nil {
		return err
	}

	return nil
}
