// Package fireworks implements ChatCompletionStream against the Fireworks
// OpenAI-compatible chat completions API.
package fireworks

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/gas-genie/business/assistant/domain"
	"github.com/fd1az/gas-genie/internal/apperror"
	"github.com/fd1az/gas-genie/internal/httpclient"
	"github.com/fd1az/gas-genie/internal/logger"
)

const (
	tracerName = "fireworks"

	// BaseAPIURL is the Fireworks inference endpoint.
	BaseAPIURL = "https://api.fireworks.ai/inference/v1"
	// DefaultModel is the hosted model used for completions.
	DefaultModel = "accounts/fireworks/models/deepseek-v3"

	completionsEndpoint = "/chat/completions"

	// Buffered text is flushed once it reaches this many bytes.
	flushThreshold = 10
	flushSuffixes  = " .,!?\n"

	maxLineSize = 1 << 20
)

// Config holds configuration for the Fireworks client.
type Config struct {
	BaseURL      string
	APIKey       string
	Model        string
	SystemPrompt string
}

// DefaultConfig returns sensible defaults for apiKey.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:      BaseAPIURL,
		APIKey:       apiKey,
		Model:        DefaultModel,
		SystemPrompt: domain.SystemPrompt,
	}
}

// Client streams chat completions.
type Client struct {
	client httpclient.Client
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewClient creates a Fireworks client. A missing API key is a configuration
// error.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("fireworks API key is required"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = domain.SystemPrompt
	}

	tracer := otel.Tracer(tracerName)

	// Streams are bounded by the per-call context deadline, not a client timeout.
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("fireworks"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(0),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
		httpclient.WithHeaders(map[string]string{
			"Authorization": "Bearer " + cfg.APIKey,
			"Accept":        "text/event-stream",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client: client,
		config: cfg,
		logger: log,
		tracer: tracer,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Stream           bool          `json:"stream"`
	MaxTokens        int           `json:"max_tokens"`
	TopP             float64       `json:"top_p"`
	TopK             int           `json:"top_k"`
	PresencePenalty  float64       `json:"presence_penalty"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	Temperature      float64       `json:"temperature"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

// Stream sends prompt and relays the completion as re-chunked fragments.
func (c *Client) Stream(ctx context.Context, prompt string, opts domain.ModelOptions) <-chan domain.Fragment {
	out := make(chan domain.Fragment)

	go func() {
		defer close(out)

		ctx, span := c.tracer.Start(ctx, "fireworks.stream",
			trace.WithAttributes(
				attribute.String("model", c.config.Model),
				attribute.Int("max_tokens", opts.MaxTokens),
			),
		)
		defer span.End()

		emit := func(f domain.Fragment) bool {
			select {
			case out <- f:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if err := c.stream(ctx, prompt, opts, emit); err != nil {
			// Nobody is listening once the caller has gone away.
			if ctx.Err() != nil {
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, string(err.Kind))
			c.logger.Error(ctx, "model stream failed", "kind", err.Kind, "status", err.Status, "error", err.Message)
			emit(err.Fragment())
			return
		}

		span.SetStatus(codes.Ok, "completed")
	}()

	return out
}

// stream runs one completion under opts.Timeout. emit returns false once the
// caller has gone away.
func (c *Client) stream(ctx context.Context, prompt string, opts domain.ModelOptions, emit func(domain.Fragment) bool) *domain.ModelStreamError {
	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	body := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: c.config.SystemPrompt},
			{Role: "user", Content: prompt},
		},
		Stream:           true,
		MaxTokens:        opts.MaxTokens,
		TopP:             opts.TopP,
		TopK:             opts.TopK,
		PresencePenalty:  opts.PresencePenalty,
		FrequencyPenalty: opts.FrequencyPenalty,
		Temperature:      opts.Temperature,
	}

	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "chat_completions")),
		httpclient.WithResponseErrorHandler(fireworksErrorHandler),
		httpclient.WithHeadersLogConfig(true, "Authorization"),
	).
		SetBody(body).
		Stream(callCtx, http.MethodPost, completionsEndpoint)
	if err != nil {
		return classify(callCtx, err)
	}
	defer resp.Body.Close()

	var buffer strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "[DONE]" {
			break
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			c.logger.Warn(ctx, "skipping undecodable stream chunk", "error", err)
			continue
		}
		if chunk.Error != nil {
			return &domain.ModelStreamError{Kind: domain.KindUnknown, Message: chunk.Error.Message}
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		content := chunk.Choices[0].Delta.Content
		if content == "" {
			continue
		}

		buffer.WriteString(content)
		if buffer.Len() >= flushThreshold || strings.ContainsAny(content[len(content)-1:], flushSuffixes) {
			if !emit(domain.TextFragment(buffer.String())) {
				return nil
			}
			buffer.Reset()
		}
	}

	if err := scanner.Err(); err != nil {
		return classify(callCtx, err)
	}
	if callCtx.Err() != nil && ctx.Err() == nil {
		return classify(callCtx, callCtx.Err())
	}

	if buffer.Len() > 0 {
		emit(domain.TextFragment(buffer.String()))
	}
	return nil
}

// classify maps a transport or status failure to a stream error.
func classify(ctx context.Context, err error) *domain.ModelStreamError {
	var streamErr *domain.ModelStreamError
	if errors.As(err, &streamErr) {
		return streamErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.ModelStreamError{Kind: domain.KindTimeout, Message: err.Error()}
	}
	return &domain.ModelStreamError{Kind: domain.KindUnknown, Message: err.Error()}
}

// fireworksErrorHandler parses error statuses into ModelStreamError.
func fireworksErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}

	return &domain.ModelStreamError{
		Kind:    domain.KindFromStatus(statusCode),
		Status:  statusCode,
		Message: errorBodyMessage(statusCode, body),
	}
}

// errorBodyMessage accepts both {"error":{"message":...}} and {"error":"..."}.
func errorBodyMessage(statusCode int, body []byte) string {
	var nested struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(statusCode)
}
