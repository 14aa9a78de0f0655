// Package app contains application services and port definitions for the gas context.
package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/internal/apperror"
	"github.com/fd1az/gas-genie/internal/logger"
)

const instrumentationName = "github.com/fd1az/gas-genie/business/gas/app"

// gasServiceMetrics holds OTEL metric instruments.
type gasServiceMetrics struct {
	fetches          metric.Int64Counter
	recommendedPrice metric.Float64Gauge
	suggestions      metric.Int64Counter
}

// GasService fetches observations, keeps the price history and turns the
// latest observation into a recommendation.
type GasService struct {
	source  GasPriceSource
	history *domain.PriceHistory
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *gasServiceMetrics
}

// NewGasService creates a GasService owning history.
func NewGasService(source GasPriceSource, history *domain.PriceHistory, log logger.LoggerInterface) (*GasService, error) {
	s := &GasService{
		source:  source,
		history: history,
		logger:  log,
		tracer:  otel.Tracer(instrumentationName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

func (s *GasService) initMetrics() error {
	meter := otel.Meter(instrumentationName)
	var err error

	s.metrics = &gasServiceMetrics{}

	s.metrics.fetches, err = meter.Int64Counter(
		"gas_fetch_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	s.metrics.recommendedPrice, err = meter.Float64Gauge(
		"gas_recommended_price_gwei",
		metric.WithDescription("Latest recommended gas price"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	s.metrics.suggestions, err = meter.Int64Counter(
		"gas_suggestion_total",
		metric.WithDescription("Recommendations by suggested action"),
		metric.WithUnit("{recommendation}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// FetchAndRecommend fetches a fresh observation, appends it to the history
// and returns the resulting recommendation. A failed fetch leaves the
// history untouched.
func (s *GasService) FetchAndRecommend(ctx context.Context) (*domain.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "gas.fetch_and_recommend",
		trace.WithAttributes(attribute.String("source", s.source.Name())),
	)
	defer span.End()

	obs, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	s.history.Append(*obs)

	trend := domain.AnalyzeTrend(s.history)
	if trend.Undefined() {
		s.logger.Warn(ctx, "trend undefined, previous proposed price is zero",
			"code", apperror.CodeTrendUndefined,
			"current", *trend.CurrentPrice)
	}

	rec := domain.Recommend(*obs, trend)

	s.metrics.recommendedPrice.Record(ctx, rec.RecommendedPrice)
	s.metrics.suggestions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("suggestion", string(rec.Suggestion)),
		attribute.String("congestion", string(rec.NetworkMetrics.CongestionLevel)),
	))

	span.SetAttributes(
		attribute.Float64("recommended_price", rec.RecommendedPrice),
		attribute.Float64("confidence", rec.Confidence),
		attribute.String("suggestion", string(rec.Suggestion)),
		attribute.String("trend", string(trend.Trend)),
		attribute.Int("history_len", s.history.Len()),
	)
	span.SetStatus(codes.Ok, "recommended")

	s.logger.Debug(ctx, "gas recommendation",
		"price", rec.RecommendedPrice,
		"confidence", rec.Confidence,
		"suggestion", rec.Suggestion,
		"trend", trend.Trend,
		"congestion", rec.NetworkMetrics.CongestionLevel)

	return &rec, nil
}

// SpeedUpOptions prices replacement options for a pending transaction bid at
// currentGwei. The fresh observation is not added to the history.
func (s *GasService) SpeedUpOptions(ctx context.Context, currentGwei float64) (*domain.SpeedUpReport, error) {
	ctx, span := s.tracer.Start(ctx, "gas.speed_up_options",
		trace.WithAttributes(attribute.Float64("current_gwei", currentGwei)),
	)
	defer span.End()

	if currentGwei <= 0 {
		err := apperror.Validation(apperror.CodeInvalidInput, "current gas price must be greater than zero")
		span.RecordError(err)
		return nil, err
	}

	obs, err := s.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	report := domain.BuildSpeedUpReport(currentGwei, *obs, domain.AnalyzeTrend(s.history))

	span.SetStatus(codes.Ok, "priced")
	return &report, nil
}

// History returns the stored observations, oldest first.
func (s *GasService) History() []domain.Observation {
	return s.history.Snapshot()
}

// SourceName returns the name of the configured gas price source.
func (s *GasService) SourceName() string {
	return s.source.Name()
}

// SourceHealth reports the source's own health when it exposes one.
func (s *GasService) SourceHealth(ctx context.Context) (bool, string) {
	if h, ok := s.source.(interface{ Healthy() (bool, string) }); ok {
		return h.Healthy()
	}
	return true, s.source.Name()
}

func (s *GasService) fetch(ctx context.Context) (*domain.Observation, error) {
	obs, err := s.source.Fetch(ctx)

	s.metrics.fetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", s.source.Name()),
		attribute.Bool("success", err == nil && obs != nil),
	))

	if err != nil {
		s.logger.Error(ctx, "gas price fetch failed", "source", s.source.Name(), "error", err)
		if apperror.GetCode(err) == apperror.CodeGasFetchFailed {
			return nil, err
		}
		return nil, apperror.New(apperror.CodeGasFetchFailed,
			apperror.WithCause(err),
			apperror.WithContext(s.source.Name()))
	}

	if obs == nil {
		s.logger.Error(ctx, "gas price source returned no data", "source", s.source.Name())
		return nil, apperror.New(apperror.CodeGasFetchFailed,
			apperror.WithContext(s.source.Name()+" returned no data"))
	}

	return obs, nil
}
