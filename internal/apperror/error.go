package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// AppError carries a stable code, a user facing message and the HTTP status
// it maps to. Comparison with errors.Is matches on Code only.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	Context    string
	TraceID    string
	Timestamp  time.Time
	cause      error
}

func (e *AppError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Detail is the message plus context, as shown in an assistant reply.
func (e *AppError) Detail() string {
	if e.Context != "" {
		return e.Message + ": " + e.Context
	}
	return e.Message
}

// WithTraceID tags the error with the request's correlation ID.
func (e *AppError) WithTraceID(traceID string) *AppError {
	e.TraceID = traceID
	return e
}

// LogValue lets the logger render the error as a group.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
		slog.Int("status", e.StatusCode),
	}
	if e.Context != "" {
		attrs = append(attrs, slog.String("context", e.Context))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// ErrorBody is the JSON error payload returned by the HTTP API.
type ErrorBody struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	TraceID   string `json:"traceId,omitempty"`
	Timestamp string `json:"timestamp"`
}

type Response struct {
	Error ErrorBody `json:"error"`
}

func (e *AppError) ToResponse() Response {
	return Response{Error: ErrorBody{
		Code:      e.Code,
		Message:   e.Message,
		Context:   e.Context,
		TraceID:   e.TraceID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	}}
}

// New builds an error whose message and status default from the code.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{
		Code:       code,
		Message:    messages[code],
		StatusCode: defaultStatusCode(code),
		Timestamp:  time.Now(),
	}

	for _, opt := range opts {
		opt(err)
	}

	if err.Message == "" {
		err.Message = string(code)
	}

	return err
}

type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) {
		e.Message = message
	}
}

func WithContext(context string) Option {
	return func(e *AppError) {
		e.Context = context
	}
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) {
		e.StatusCode = statusCode
	}
}

func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
	}
}

// Validation is a 400 for bad client input.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// Internal is a 500 wrapping an unexpected failure.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusInternalServerError))
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns CodeUnknownError for errors outside this package.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}

func defaultStatusCode(code Code) int {
	switch {
	case code == CodeGasFetchFailed,
		code == CodeGasSourceMalformed,
		code == CodeEthereumRPCError,
		code == CodeModelStreamFailed:
		return http.StatusBadGateway

	case strings.HasSuffix(string(code), "NOT_FOUND"):
		return http.StatusNotFound

	case strings.HasPrefix(string(code), "INVALID"),
		code == CodeRequiredField,
		code == CodeValidationError:
		return http.StatusBadRequest

	case strings.Contains(string(code), "CONNECTION"),
		strings.Contains(string(code), "TIMEOUT"),
		code == CodeCircuitOpen,
		code == CodeServiceUnavailable:
		return http.StatusServiceUnavailable

	case code == CodeRateLimitExceeded:
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}
