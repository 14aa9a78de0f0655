package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetricProvider_PrometheusScrape(t *testing.T) {
	p, err := NewMetricProvider(
		WithServiceName("gas-genie-test"),
		WithProviderConfig(ProviderCfg{Provider: PrometheusProvider}),
	)
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	defer p.Shutdown(context.Background())

	counter, err := p.Meter("test").Int64Counter("gas_fetch_total")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	counter.Add(context.Background(), 3)

	srv := NewPrometheusServer(p, WithPort("0"))
	if srv.Addr != ":0" {
		t.Errorf("addr = %q", srv.Addr)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "gas_fetch_total") {
		t.Errorf("scrape missing counter:\n%s", body)
	}
}

func TestNewMetricProvider_Twice(t *testing.T) {
	// Each provider owns its registry, so repeated setup must not collide.
	for i := 0; i < 2; i++ {
		p, err := NewMetricProvider(WithProviderConfig(ProviderCfg{Provider: PrometheusProvider}))
		if err != nil {
			t.Fatalf("NewMetricProvider #%d: %v", i, err)
		}
		p.Shutdown(context.Background())
	}
}
