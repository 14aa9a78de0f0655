package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and sends a single upstream call.
type Request interface {
	Get(ctx context.Context, path string) (*Response, error)
	Post(ctx context.Context, path string) (*Response, error)

	// Stream sends the request and returns the live response with its body
	// unread. The caller must close the body. Error statuses are drained and
	// passed to the error handler.
	Stream(ctx context.Context, method, path string) (*http.Response, error)

	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	SetResult(result any) Request
}

// Response is a fully buffered upstream response.
type Response struct {
	*http.Response
	body []byte
}

func (r *Response) Body() []byte {
	return r.body
}

// IsError reports a 4xx or 5xx status.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// StatusError is returned for error statuses the handler let through.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

type requestBuilder struct {
	client      *http.Client
	provider    string
	tracer      trace.Tracer
	inst        instruments
	baseURL     string
	headers     map[string]string
	query       url.Values
	body        any
	result      any
	logRequest  bool
	logResponse bool
	req         requestConfig
}

func (r *requestBuilder) Get(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, path)
}

func (r *requestBuilder) Post(ctx context.Context, path string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, path)
}

// SetBody sets the payload. Values other than []byte, string and io.Reader
// are JSON encoded.
func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = url.Values{}
	}
	r.query.Set(key, value)
	return r
}

// SetResult decodes a JSON response body into result.
func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) startSpan(ctx context.Context, name, method, path string) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
			attribute.String("provider", r.provider),
		),
	)
}

func (r *requestBuilder) Stream(ctx context.Context, method, path string) (*http.Response, error) {
	ctx, span := r.startSpan(ctx, "upstream.stream", method, path)
	defer span.End()

	req, err := r.buildRequest(ctx, span, method, path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.recordError(ctx, span, start, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		r.record(ctx, start, false)

		if err := r.handleStatus(resp.StatusCode, body); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: body}
		span.SetStatus(codes.Error, statusErr.Error())
		return nil, statusErr
	}

	r.record(ctx, start, true)
	return resp, nil
}

func (r *requestBuilder) execute(ctx context.Context, method, path string) (*Response, error) {
	ctx, span := r.startSpan(ctx, "upstream.request", method, path)
	defer span.End()

	req, err := r.buildRequest(ctx, span, method, path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.recordError(ctx, span, start, err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		r.recordError(ctx, span, start, err)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if r.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", string(body)),
		))
	}

	response := &Response{Response: resp, body: body}

	if r.result != nil && len(body) > 0 {
		// A body that fails to decode leaves result untouched; the error
		// handler decides whether that is fatal.
		if err := json.Unmarshal(body, r.result); err != nil {
			span.RecordError(err)
		}
	}

	if err := r.handleStatus(resp.StatusCode, body); err != nil {
		r.record(ctx, start, false)
		span.SetStatus(codes.Error, err.Error())
		return response, err
	}

	r.record(ctx, start, !response.IsError())
	return response, nil
}

func (r *requestBuilder) handleStatus(status int, body []byte) error {
	if r.req.errorHandler == nil {
		return nil
	}
	return r.req.errorHandler(status, body)
}

func (r *requestBuilder) resolveURL(path string) string {
	full := path
	if r.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = strings.TrimSuffix(r.baseURL, "/")
		if path != "" {
			full += "/" + strings.TrimPrefix(path, "/")
		}
	}

	if len(r.query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + r.query.Encode()
	}

	return full
}

func (r *requestBuilder) encodeBody(span trace.Span) (io.Reader, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, nil
	case []byte:
		r.traceBody(span, string(b))
		return bytes.NewReader(b), nil
	case string:
		r.traceBody(span, b)
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		r.traceBody(span, string(encoded))
		return bytes.NewReader(encoded), nil
	}
}

func (r *requestBuilder) traceBody(span trace.Span, body string) {
	if !r.logRequest {
		return
	}
	span.AddEvent("request.body", trace.WithAttributes(
		attribute.String("http.request_body", body),
	))
}

func (r *requestBuilder) buildRequest(ctx context.Context, span trace.Span, method, path string) (*http.Request, error) {
	body, err := r.encodeBody(span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, r.resolveURL(path), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	if r.req.logHeaders {
		r.traceHeaders(span, req.Header)
	}

	return req, nil
}

func (r *requestBuilder) recordError(ctx context.Context, span trace.Span, start time.Time, err error) {
	span.RecordError(err)

	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}

	span.SetStatus(codes.Error, err.Error())
	r.record(ctx, start, false)
}

func (r *requestBuilder) record(ctx context.Context, start time.Time, success bool) {
	attrs := make([]attribute.KeyValue, 0, 2+len(r.req.labels))
	attrs = append(attrs,
		attribute.String("provider", r.provider),
		attribute.Bool("success", success),
	)
	for _, l := range r.req.labels {
		attrs = append(attrs, attribute.String(l.Key, l.Value))
	}

	set := metric.WithAttributes(attrs...)
	r.inst.requests.Add(ctx, 1, set)
	r.inst.duration.Record(ctx, time.Since(start).Seconds(), set)
}

func (r *requestBuilder) traceHeaders(span trace.Span, headers http.Header) {
	redacted := make(map[string]bool, len(r.req.redactHeaders))
	for _, h := range r.req.redactHeaders {
		redacted[strings.ToLower(h)] = true
	}

	attrs := make([]attribute.KeyValue, 0, len(headers))
	for k := range headers {
		key := strings.ToLower(k)
		val := headers.Get(k)
		if redacted[key] {
			val = "*****"
		}
		attrs = append(attrs, attribute.String("http.request.header."+key, val))
	}

	if len(attrs) > 0 {
		span.AddEvent("request.headers", trace.WithAttributes(attrs...))
	}
}
