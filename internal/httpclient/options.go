package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// TraceOption selects which bodies are attached to spans.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

type clientConfig struct {
	provider       string
	baseURL        string
	headers        map[string]string
	requestTimeout *time.Duration
	transport      http.RoundTripper
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	traceRequest   bool
	traceResponse  bool
}

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientConfig)

func newClientConfig(opts ...ClientOption) clientConfig {
	cfg := clientConfig{provider: "default"}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithProviderName labels spans and metrics, e.g. "etherscan".
func WithProviderName(name string) ClientOption {
	return func(c *clientConfig) {
		if name != "" {
			c.provider = name
		}
	}
}

// WithBaseURL is joined with relative request paths.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *clientConfig) {
		c.headers = headers
	}
}

// WithRequestTimeout bounds the whole exchange. Zero disables the bound.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.requestTimeout = &timeout
	}
}

// WithTransport replaces the base transport. It is still wrapped by otelhttp.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *clientConfig) {
		c.transport = rt
	}
}

func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(c *clientConfig) {
		c.meterProvider = mp
	}
}

// WithTraceOptions sets the tracer and which bodies to record on spans.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(c *clientConfig) {
		c.tracer = tracer
		for _, opt := range opts {
			switch opt {
			case TraceRequest:
				c.traceRequest = true
			case TraceResponse:
				c.traceResponse = true
			}
		}
	}
}

// ResponseErrorHandler maps a response to a domain error. Returning nil
// accepts the response.
type ResponseErrorHandler func(statusCode int, body []byte) error

// Label is an extra metric and span attribute.
type Label struct {
	Key   string
	Value string
}

func NewLabel(key, value string) *Label {
	return &Label{Key: key, Value: value}
}

type requestConfig struct {
	errorHandler  ResponseErrorHandler
	labels        []*Label
	logHeaders    bool
	redactHeaders []string
}

// RequestOption configures a single request.
type RequestOption func(*requestConfig)

func newRequestConfig(opts ...RequestOption) requestConfig {
	var cfg requestConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(c *requestConfig) {
		c.errorHandler = handler
	}
}

func WithLabels(labels ...*Label) RequestOption {
	return func(c *requestConfig) {
		c.labels = labels
	}
}

// WithHeadersLogConfig records request headers on the span, masking the
// redacted ones.
func WithHeadersLogConfig(enable bool, redact ...string) RequestOption {
	return func(c *requestConfig) {
		c.logHeaders = enable
		c.redactHeaders = redact
	}
}
