package github

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// RetryConfig controls retries of API requests
type RetryConfig struct {
	// MaxAttempts includes the first request
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// RetryableStatus lists HTTP status codes that are retried
	RetryableStatus []int
}

// DefaultRetryConfig retries server errors and 429 three times
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
		RetryableStatus: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// GetDelay returns the backoff before retry number attempt (zero-based)
func (r *RetryConfig) GetDelay(attempt int) time.Duration {
	if r == nil || r.BaseDelay <= 0 {
		return 0
	}
	delay := r.BaseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if r.MaxDelay > 0 && delay >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		return r.MaxDelay
	}
	return delay
}

// ShouldRetry reports whether a response status is retryable
func (r *RetryConfig) ShouldRetry(statusCode int) bool {
	if r == nil {
		return false
	}
	for _, code := range r.RetryableStatus {
		if code == statusCode {
			return true
		}
	}
	return false
}

// IsRetryableError reports whether a transport error is worth retrying
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
