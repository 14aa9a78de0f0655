// Package httpclient is the instrumented HTTP client used for upstream gas
// and LLM providers. Every request is traced and counted per provider.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/fd1az/gas-genie/internal/httpclient"

	defaultRequestTimeout  = 10 * time.Second
	defaultDialKeepAlive   = 30 * time.Second
	defaultMaxConnsPerHost = 8
	defaultIdleConnTimeout = 90 * time.Second

	metricRequests = "upstream_requests_total"
	metricDuration = "upstream_request_duration_seconds"
)

// Client builds requests against one upstream provider.
type Client interface {
	NewRequest() Request
	NewRequestWithOptions(opts ...RequestOption) Request
}

type instruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// InstrumentedClient is safe for concurrent use. Each request gets its own
// builder.
type InstrumentedClient struct {
	client   *http.Client
	provider string
	tracer   trace.Tracer
	inst     instruments
	cfg      clientConfig
}

// NewInstrumentedClient creates a client for a single provider.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	cfg := newClientConfig(opts...)

	timeout := defaultRequestTimeout
	if cfg.requestTimeout != nil {
		// Zero leaves streaming responses unbounded; callers pass a context deadline instead.
		timeout = *cfg.requestTimeout
	}

	transport := cfg.transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	inst, err := newInstruments(cfg)
	if err != nil {
		return nil, err
	}

	tracer := cfg.tracer
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}

	return &InstrumentedClient{
		client:   httpClient,
		provider: cfg.provider,
		tracer:   tracer,
		inst:     inst,
		cfg:      cfg,
	}, nil
}

func newInstruments(cfg clientConfig) (instruments, error) {
	mp := cfg.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	meter := mp.Meter(instrumentationName,
		metric.WithInstrumentationAttributes(attribute.String("provider", cfg.provider)))

	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("Upstream HTTP requests by provider and outcome"))
	if err != nil {
		return instruments{}, err
	}

	duration, err := meter.Float64Histogram(metricDuration,
		metric.WithDescription("Time until upstream response headers arrive"),
		metric.WithUnit("s"))
	if err != nil {
		return instruments{}, err
	}

	return instruments{requests: requests, duration: duration}, nil
}

// NewRequest starts a request with the client defaults.
func (c *InstrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

// NewRequestWithOptions starts a request with per-call labels and handlers.
func (c *InstrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	rc := newRequestConfig(opts...)

	headers := make(map[string]string, len(c.cfg.headers))
	for k, v := range c.cfg.headers {
		headers[k] = v
	}

	return &requestBuilder{
		client:      c.client,
		provider:    c.provider,
		tracer:      c.tracer,
		inst:        c.inst,
		baseURL:     c.cfg.baseURL,
		headers:     headers,
		logRequest:  c.cfg.traceRequest,
		logResponse: c.cfg.traceResponse,
		req:         rc,
	}
}
