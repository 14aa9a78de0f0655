package domain

import (
	"fmt"
	"net/http"
)

// ErrorPrefix starts every in-band error fragment.
const ErrorPrefix = "Error: "

// Fragment is one piece of streamed response text. The terminal fragment of a
// failed stream carries Err and its Content starts with ErrorPrefix.
type Fragment struct {
	Content string
	Err     error
}

// TextFragment wraps streamed text.
func TextFragment(content string) Fragment {
	return Fragment{Content: content}
}

// ErrorFragment renders err as an in-band error fragment.
func ErrorFragment(err error, message string) Fragment {
	return Fragment{Content: ErrorPrefix + message, Err: err}
}

// IsError reports whether f terminates a failed stream.
func (f Fragment) IsError() bool {
	return f.Err != nil
}

// StreamErrorKind classifies model call failures.
type StreamErrorKind string

const (
	KindTimeout            StreamErrorKind = "timeout"
	KindAuthentication     StreamErrorKind = "authentication"
	KindRateLimit          StreamErrorKind = "rate_limit"
	KindInvalidRequest     StreamErrorKind = "invalid_request"
	KindAPITimeout         StreamErrorKind = "api_timeout"
	KindInternalServer     StreamErrorKind = "internal_server"
	KindServiceUnavailable StreamErrorKind = "service_unavailable"
	KindBadGateway         StreamErrorKind = "bad_gateway"
	KindUnknown            StreamErrorKind = "unknown"
)

// ModelStreamError is a failed or interrupted model call.
type ModelStreamError struct {
	Kind    StreamErrorKind
	Status  int    // upstream HTTP status, 0 when none
	Message string // upstream message
}

func (e *ModelStreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model stream %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("model stream %s: %s", e.Kind, e.Message)
}

// UserMessage is the text shown to the end user after ErrorPrefix.
func (e *ModelStreamError) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "Request timed out. Please try again."
	case KindAuthentication:
		return "Authentication failed. Please check your API key."
	case KindRateLimit:
		return "Rate limit exceeded. Please try again later."
	default:
		if e.Message == "" {
			return string(e.Kind)
		}
		return e.Message
	}
}

// Fragment renders the error as a terminal fragment.
func (e *ModelStreamError) Fragment() Fragment {
	return ErrorFragment(e, e.UserMessage())
}

// KindFromStatus maps an upstream HTTP status to an error kind.
func KindFromStatus(status int) StreamErrorKind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthentication
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return KindInvalidRequest
	case http.StatusRequestTimeout:
		return KindAPITimeout
	case http.StatusInternalServerError:
		return KindInternalServer
	case http.StatusServiceUnavailable:
		return KindServiceUnavailable
	case http.StatusBadGateway:
		return KindBadGateway
	default:
		return KindUnknown
	}
}
