// Package circuitbreaker wraps sony/gobreaker with application error codes.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/gas-genie/internal/apperror"
)

// Config holds circuit breaker settings.
type Config struct {
	Name             string
	MaxRequests      uint32        // requests allowed while half-open
	Interval         time.Duration // closed-state counter reset period
	Timeout          time.Duration // open -> half-open delay
	FailureThreshold uint32        // consecutive failures before opening
	OnStateChange    func(name string, from, to gobreaker.State)
	IsSuccessful     func(err error) bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// CircuitBreaker guards calls returning T.
type CircuitBreaker[T any] struct {
	name string
	cb   *gobreaker.CircuitBreaker[T]
}

// New creates a circuit breaker from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: cfg.OnStateChange,
		IsSuccessful:  cfg.IsSuccessful,
	}

	return &CircuitBreaker[T]{
		name: cfg.Name,
		cb:   gobreaker.NewCircuitBreaker[T](settings),
	}
}

// Execute runs fn through the breaker. Rejections while open or half-open
// are returned as CodeCircuitOpen.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	res, err := c.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, apperror.New(apperror.CodeCircuitOpen,
			apperror.WithCause(err),
			apperror.WithContext(c.name))
	}
	return res, err
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}

// Open reports whether the breaker is currently rejecting calls.
func (c *CircuitBreaker[T]) Open() bool {
	return c.cb.State() == gobreaker.StateOpen
}

// Name returns the breaker name.
func (c *CircuitBreaker[T]) Name() string {
	return c.name
}
