// Package etherscan implements a GasPriceSource backed by the Etherscan gas oracle.
package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/internal/apperror"
	"github.com/fd1az/gas-genie/internal/circuitbreaker"
	"github.com/fd1az/gas-genie/internal/httpclient"
	"github.com/fd1az/gas-genie/internal/logger"
	"github.com/fd1az/gas-genie/internal/ratelimit"
)

const (
	tracerName = "etherscan"

	// BaseAPIURL is the public Etherscan API endpoint.
	BaseAPIURL = "https://api.etherscan.io/api"

	defaultTimeout           = 10 * time.Second
	defaultRequestsPerSecond = 5.0
)

// Config holds configuration for the Etherscan source.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64 // free tier allows 5/s
}

// DefaultConfig returns sensible defaults for apiKey.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:           BaseAPIURL,
		APIKey:            apiKey,
		Timeout:           defaultTimeout,
		RequestsPerSecond: defaultRequestsPerSecond,
	}
}

// UpstreamError reports a non-success answer from Etherscan, either an HTTP
// error status or a payload whose status is not "1".
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("etherscan error %d: %s", e.Status, e.Message)
}

// Source fetches gas-oracle snapshots from Etherscan.
type Source struct {
	client  httpclient.Client
	config  Config
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	cb      *circuitbreaker.CircuitBreaker[*domain.Observation]
	limiter *ratelimit.Limiter
	now     func() time.Time
}

// NewSource creates an Etherscan-backed GasPriceSource.
func NewSource(cfg Config, log logger.LoggerInterface) (*Source, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("etherscan"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("etherscan")
	// A rejected payload is still a healthy upstream.
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.GetCode(err) == apperror.CodeGasSourceMalformed
	}

	return &Source{
		client:  client,
		config:  cfg,
		logger:  log,
		tracer:  tracer,
		cb:      circuitbreaker.New[*domain.Observation](cbCfg),
		limiter: ratelimit.New(cfg.RequestsPerSecond, 1),
		now:     time.Now,
	}, nil
}

// Name identifies the source.
func (s *Source) Name() string {
	return "etherscan"
}

// Healthy reports false while the breaker is open.
func (s *Source) Healthy() (bool, string) {
	return !s.cb.Open(), s.cb.State().String()
}

// gasOracleResponse is the envelope returned by the gastracker module.
// Result is an object on success and a plain string on failure.
type gasOracleResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type gasOracleResult struct {
	LastBlock       string `json:"LastBlock"`
	SafeGasPrice    string `json:"SafeGasPrice"`
	ProposeGasPrice string `json:"ProposeGasPrice"`
	FastGasPrice    string `json:"FastGasPrice"`
	SuggestBaseFee  string `json:"suggestBaseFee"`
	GasUsedRatio    string `json:"gasUsedRatio"`
}

// Fetch retrieves the current gas oracle snapshot.
func (s *Source) Fetch(ctx context.Context) (*domain.Observation, error) {
	ctx, span := s.tracer.Start(ctx, "etherscan.gas_oracle")
	defer span.End()

	if err := s.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err),
			apperror.WithContext("etherscan rate limiter"))
	}

	obs, err := s.cb.Execute(func() (*domain.Observation, error) {
		return s.fetch(ctx)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Float64("propose", obs.Propose),
		attribute.Int64("last_block", int64(obs.LastBlock)),
	)
	span.SetStatus(codes.Ok, "fetched")
	return obs, nil
}

func (s *Source) fetch(ctx context.Context) (*domain.Observation, error) {
	var payload gasOracleResponse
	_, err := s.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "gasoracle")),
		httpclient.WithResponseErrorHandler(etherscanErrorHandler),
	).
		SetQueryParam("module", "gastracker").
		SetQueryParam("action", "gasoracle").
		SetQueryParam("apikey", s.config.APIKey).
		SetResult(&payload).
		Get(ctx, "")
	if err != nil {
		return nil, apperror.New(apperror.CodeGasFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext("etherscan request failed"))
	}

	if payload.Status != "1" {
		return nil, apperror.New(apperror.CodeGasFetchFailed,
			apperror.WithCause(&UpstreamError{Status: 200, Message: payload.failureMessage()}),
			apperror.WithContext("etherscan rejected request"))
	}

	var result gasOracleResult
	if err := json.Unmarshal(payload.Result, &result); err != nil {
		return nil, apperror.New(apperror.CodeGasSourceMalformed,
			apperror.WithCause(err),
			apperror.WithContext("etherscan result is not an object"))
	}

	obs, err := result.toObservation()
	if err != nil {
		return nil, apperror.New(apperror.CodeGasSourceMalformed,
			apperror.WithCause(err),
			apperror.WithContext("etherscan result"))
	}
	obs.FetchedAt = s.now()

	s.logger.Debug(ctx, "fetched gas oracle",
		"safe", obs.Safe,
		"propose", obs.Propose,
		"fast", obs.Fast,
		"last_block", obs.LastBlock)

	return obs, nil
}

// failureMessage prefers the string result, which carries the real reason
// (e.g. "Invalid API Key"), over the generic NOTOK message.
func (p gasOracleResponse) failureMessage() string {
	var reason string
	if err := json.Unmarshal(p.Result, &reason); err == nil && reason != "" {
		return reason
	}
	if p.Message != "" {
		return p.Message
	}
	return "unknown error"
}

func (r gasOracleResult) toObservation() (*domain.Observation, error) {
	safe, err := parseGwei("SafeGasPrice", r.SafeGasPrice)
	if err != nil {
		return nil, err
	}
	propose, err := parseGwei("ProposeGasPrice", r.ProposeGasPrice)
	if err != nil {
		return nil, err
	}
	fast, err := parseGwei("FastGasPrice", r.FastGasPrice)
	if err != nil {
		return nil, err
	}
	baseFee, err := parseGwei("suggestBaseFee", r.SuggestBaseFee)
	if err != nil {
		return nil, err
	}
	ratios, err := parseRatios(r.GasUsedRatio)
	if err != nil {
		return nil, err
	}

	var lastBlock uint64
	if r.LastBlock != "" {
		block, err := decimal.NewFromString(r.LastBlock)
		if err != nil {
			return nil, fmt.Errorf("LastBlock %q: %w", r.LastBlock, err)
		}
		lastBlock = uint64(block.IntPart())
	}

	return &domain.Observation{
		Safe:             safe,
		Propose:          propose,
		Fast:             fast,
		SuggestedBaseFee: baseFee,
		GasUsedRatio:     ratios,
		LastBlock:        lastBlock,
	}, nil
}

func parseGwei(field, raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, raw, err)
	}
	return d.InexactFloat64(), nil
}

// parseRatios splits the comma-separated ratio list. An empty list yields a
// single zero ratio.
func parseRatios(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return []float64{0}, nil
	}

	parts := strings.Split(raw, ",")
	ratios := make([]float64, 0, len(parts))
	for _, part := range parts {
		r, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("gasUsedRatio entry %q: %w", part, err)
		}
		ratios = append(ratios, r.InexactFloat64())
	}
	return ratios, nil
}

// etherscanErrorHandler turns HTTP error statuses into UpstreamError.
func etherscanErrorHandler(statusCode int, body []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return &UpstreamError{Status: statusCode, Message: strings.TrimSpace(string(body))}
	}
	return nil
}
