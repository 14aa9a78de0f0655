package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/gas-genie/business/assistant/domain"
	gasdomain "github.com/fd1az/gas-genie/business/gas/domain"
	"github.com/fd1az/gas-genie/internal/apperror"
	"github.com/fd1az/gas-genie/internal/logger"
)

const instrumentationName = "github.com/fd1az/gas-genie/business/assistant/app"

// assistantMetrics holds OTEL metric instruments.
type assistantMetrics struct {
	streams       metric.Int64Counter
	streamErrors  metric.Int64Counter
	firstFragment metric.Float64Histogram
}

// Assistant answers free-text questions, enriching gas questions with a
// live recommendation before handing them to the model.
type Assistant struct {
	gas     GasDataProvider
	model   ChatCompletionStream
	presets domain.Presets
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *assistantMetrics
}

// NewAssistant creates an Assistant. Invalid presets are a configuration error.
func NewAssistant(gas GasDataProvider, model ChatCompletionStream, presets domain.Presets, log logger.LoggerInterface) (*Assistant, error) {
	if err := presets.Validate(); err != nil {
		return nil, err
	}

	a := &Assistant{
		gas:     gas,
		model:   model,
		presets: presets,
		logger:  log,
		tracer:  otel.Tracer(instrumentationName),
	}

	if err := a.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return a, nil
}

func (a *Assistant) initMetrics() error {
	meter := otel.Meter(instrumentationName)
	var err error

	a.metrics = &assistantMetrics{}

	a.metrics.streams, err = meter.Int64Counter(
		"llm_stream_total",
		metric.WithDescription("Total assistant streams started"),
		metric.WithUnit("{stream}"),
	)
	if err != nil {
		return err
	}

	a.metrics.streamErrors, err = meter.Int64Counter(
		"llm_stream_errors_total",
		metric.WithDescription("Streams that ended with an error fragment"),
		metric.WithUnit("{stream}"),
	)
	if err != nil {
		return err
	}

	a.metrics.firstFragment, err = meter.Float64Histogram(
		"llm_first_fragment_ms",
		metric.WithDescription("Latency until the first streamed fragment"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Assist streams the answer to query. The returned channel is closed after
// the last fragment or when ctx is cancelled.
func (a *Assistant) Assist(ctx context.Context, query, queryID string) <-chan domain.Fragment {
	out := make(chan domain.Fragment)

	go func() {
		defer close(out)

		kind := domain.Classify(query)
		ctx, span := a.tracer.Start(ctx, "assistant.assist",
			trace.WithAttributes(
				attribute.String("query_id", queryID),
				attribute.String("kind", string(kind)),
			),
		)
		defer span.End()

		start := time.Now()
		a.metrics.streams.Add(ctx, 1, metric.WithAttributes(attribute.Bool("gas_query", domain.IsGasQuery(query))))
		a.logger.Info(ctx, "assist request", "query_id", queryID, "kind", kind)

		prompt, errFrag := a.buildPrompt(ctx, query)
		if errFrag != nil {
			a.recordFailure(ctx, span, errFrag.Err)
			send(ctx, out, *errFrag)
			return
		}

		first := true
		for frag := range a.model.Stream(ctx, prompt, a.presets.For(prompt)) {
			if frag.Content == "" {
				continue
			}
			if first {
				first = false
				a.metrics.firstFragment.Record(ctx, float64(time.Since(start).Milliseconds()))
			}
			if frag.IsError() {
				a.recordFailure(ctx, span, frag.Err)
			}
			if !send(ctx, out, frag) {
				a.logger.Debug(ctx, "assist consumer gone", "query_id", queryID)
				return
			}
		}

		span.SetStatus(codes.Ok, "streamed")
	}()

	return out
}

// buildPrompt fetches gas data for gas questions. A fetch failure comes back
// as the terminal fragment.
func (a *Assistant) buildPrompt(ctx context.Context, query string) (string, *domain.Fragment) {
	if !domain.IsGasQuery(query) {
		return domain.GeneralPrompt(query), nil
	}

	rec, err := a.gas.FetchAndRecommend(ctx)
	if err != nil {
		a.logger.Error(ctx, "gas data unavailable", "error", err)
		frag := domain.ErrorFragment(err, errorMessage(err))
		return "", &frag
	}
	return domain.GasPrompt(query, *rec), nil
}

func (a *Assistant) recordFailure(ctx context.Context, span trace.Span, err error) {
	a.metrics.streamErrors.Add(ctx, 1)
	span.RecordError(err)
	span.SetStatus(codes.Error, "stream failed")
}

// GetGasData returns a fresh recommendation.
func (a *Assistant) GetGasData(ctx context.Context) (*gasdomain.Recommendation, error) {
	return a.gas.FetchAndRecommend(ctx)
}

// Query answers query against the current prices and returns the whole
// response at once. Failures are returned in-band as "Error: ..." text.
func (a *Assistant) Query(ctx context.Context, query string) string {
	ctx, span := a.tracer.Start(ctx, "assistant.query")
	defer span.End()

	rec, err := a.gas.FetchAndRecommend(ctx)
	if err != nil {
		a.recordFailure(ctx, span, err)
		return domain.ErrorPrefix + errorMessage(err)
	}

	prompt := domain.PricesPrompt(query, rec.CurrentPrices)

	var b strings.Builder
	for frag := range a.model.Stream(ctx, prompt, a.presets.For(prompt)) {
		if frag.IsError() {
			a.recordFailure(ctx, span, frag.Err)
		}
		b.WriteString(frag.Content)
	}
	return b.String()
}

// errorMessage renders err for end users, naming the innermost upstream
// cause when there is one.
func errorMessage(err error) string {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}

	msg := appErr.Detail()
	cause := err
	for next := errors.Unwrap(cause); next != nil; next = errors.Unwrap(cause) {
		cause = next
	}
	if !apperror.IsAppError(cause) {
		msg += " (" + cause.Error() + ")"
	}
	return msg
}

func send(ctx context.Context, out chan<- domain.Fragment, f domain.Fragment) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
