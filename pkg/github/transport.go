package github

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// retryTransport sits under the go-github and oauth2 transports so every API
// call gets the same treatment: it waits out an exhausted rate limit, records
// rate limit headers, and retries retryable failures with backoff.
type retryTransport struct {
	base    http.RoundTripper
	retry   *RetryConfig
	tracker *RateLimitTracker
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if t.tracker != nil {
		if err := t.tracker.WaitForRateLimitReset(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	maxAttempts := 1
	if t.retry != nil && t.retry.MaxAttempts > 1 {
		maxAttempts = t.retry.MaxAttempts
	}
	// A body that cannot be replayed is sent once
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		maxAttempts = 1
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(t.retry.GetDelay(attempt - 1))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		attemptReq, err := replay(req, attempt)
		if err != nil {
			return nil, err
		}

		last := attempt >= maxAttempts-1
		resp, err := t.base.RoundTrip(attemptReq)
		if err != nil {
			if !last && ctx.Err() == nil && IsRetryableError(err) {
				continue
			}
			return nil, err
		}

		if t.tracker != nil {
			t.tracker.Update(resp)
		}
		if !last && t.retry.ShouldRetry(resp.StatusCode) {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			continue
		}
		return resp, nil
	}
}

// replay returns req for the first attempt and a clone with a fresh body
// for later ones.
func replay(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req, nil
	}
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		clone.Body = body
	}
	return clone, nil
}
