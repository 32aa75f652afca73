package embed

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig shapes the exponential backoff applied to transient
// embedding failures.
type RetryConfig struct {
	// MaxRetries is the retry count on top of the initial attempt.
	MaxRetries int
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the growing backoff.
	MaxDelay time.Duration
	// Multiplier scales the delay after each retry.
	Multiplier float64
}

// DefaultRetryConfig returns the standard backoff policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     16 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry calls fn until it succeeds or the retry budget is spent,
// sleeping with exponential backoff between attempts. Context
// cancellation wins over both the sleep and the next attempt.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(cfg, attempt)):
		}
	}
}

// backoffDelay computes the sleep before retry number attempt+1.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := cfg.InitialDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	return delay
}
