package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestClient(t *testing.T, baseURL string) Client {
	t.Helper()
	c, err := NewInstrumentedClient(
		WithBaseURL(baseURL),
		WithProviderName("test"),
		WithRequestTimeout(2*time.Second),
		WithHeaders(map[string]string{"X-Default": "yes"}),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}
	return c
}

func TestRequest_GetEncodesQueryAndDecodesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "a b&c" {
			t.Errorf("query q = %q", r.URL.Query().Get("q"))
		}
		if r.Header.Get("X-Default") != "yes" {
			t.Error("default header missing")
		}
		w.Write([]byte(`{"status":"1"}`))
	}))
	defer server.Close()

	var out struct {
		Status string `json:"status"`
	}
	resp, err := newTestClient(t, server.URL).NewRequest().
		SetQueryParam("q", "a b&c").
		SetResult(&out).
		Get(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsError() || out.Status != "1" {
		t.Errorf("status %d, result %+v", resp.StatusCode, out)
	}
}

func TestRequest_ErrorHandler(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down"))
	}))
	defer server.Close()

	sentinel := errors.New("upstream down")
	_, err := newTestClient(t, server.URL).
		NewRequestWithOptions(WithResponseErrorHandler(func(status int, body []byte) error {
			if status >= 400 {
				return sentinel
			}
			return nil
		})).
		Get(context.Background(), "/x")
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}
}

func TestRequest_StreamLeavesBodyOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		w.Write([]byte("data: one\n\n"))
	}))
	defer server.Close()

	resp, err := newTestClient(t, server.URL).NewRequest().
		SetBody(map[string]any{"stream": true}).
		Stream(context.Background(), http.MethodPost, "/chat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if string(body) != "data: one\n\n" {
		t.Errorf("body = %q", body)
	}
}

func TestRequest_StreamErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"slow down"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).NewRequest().
		Stream(context.Background(), http.MethodPost, "/chat")

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || string(statusErr.Body) != `{"error":"slow down"}` {
		t.Errorf("got %d %q", statusErr.StatusCode, statusErr.Body)
	}
}

func TestRequest_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	c, err := NewInstrumentedClient(
		WithBaseURL(server.URL),
		WithProviderName("etherscan"),
		WithMeterProvider(mp),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	if _, err := c.NewRequestWithOptions(WithLabels(NewLabel("endpoint", "gasoracle"))).
		Get(context.Background(), "/api"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	found := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = true
		}
	}
	for _, name := range []string{metricRequests, metricDuration} {
		if !found[name] {
			t.Errorf("metric %s not recorded", name)
		}
	}
}
