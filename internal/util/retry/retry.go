// Package retry provides utilities for retrying operations with a fixed backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted marks a retry loop that consumed its whole attempt budget
// without a single success. Callers use errors.Is to distinguish exhaustion
// from fatal or cancellation failures.
var ErrExhausted = errors.New("attempt budget exhausted")

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	Interval    time.Duration
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithFixedBackoff executes the operation with a constant delay between
// attempts. The operation runs up to MaxAttempts times; the delay is slept
// between attempts, not after the last one. Context cancellation is respected
// at every sleep boundary.
//
// Errors wrapped with Fatal() are not retried.
func WithFixedBackoff(ctx context.Context, operation func(attempt int) error, opts ...Option) error {
	cfg := &Config{
		MaxAttempts: 20,
		Interval:    30 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation(attempt)
		if err == nil {
			return nil
		}

		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return fmt.Errorf("cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(cfg.Interval):
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, cfg.MaxAttempts, lastErr)
}

// WithMaxAttempts sets the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithInterval sets the fixed delay between attempts.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
// Operations that encounter fatal errors will not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err was marked with Fatal.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
