package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitStatus is a snapshot of the last observed rate limit headers
type RateLimitStatus struct {
	Limit     int
	Remaining int
	Used      int
	Reset     time.Time
}

// RateLimitTracker records X-RateLimit-* headers and lets callers wait for
// the window to reset once it is exhausted.
type RateLimitTracker struct {
	mu     sync.RWMutex
	status RateLimitStatus
	// seen is false until the first response with rate limit headers
	seen bool
	now  func() time.Time
}

// NewRateLimitTracker creates a tracker with no observations
func NewRateLimitTracker() *RateLimitTracker {
	return &RateLimitTracker{now: time.Now}
}

// Update reads rate limit headers from resp. Responses without headers are ignored.
func (t *RateLimitTracker) Update(resp *http.Response) {
	if resp == nil {
		return
	}
	limit, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))
	if err != nil {
		return
	}

	status := RateLimitStatus{Limit: limit}
	if v, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Remaining")); err == nil {
		status.Remaining = v
	}
	if v, err := strconv.Atoi(resp.Header.Get("X-RateLimit-Used")); err == nil {
		status.Used = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		status.Reset = time.Unix(v, 0)
	}

	t.mu.Lock()
	t.status = status
	t.seen = true
	t.mu.Unlock()
}

// GetStatus returns the last observed status
func (t *RateLimitTracker) GetStatus() RateLimitStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// WaitForRateLimitReset blocks until the reset time when no requests remain.
// It returns immediately when requests remain or nothing was observed yet.
func (t *RateLimitTracker) WaitForRateLimitReset(ctx context.Context) error {
	t.mu.RLock()
	seen, status := t.seen, t.status
	t.mu.RUnlock()

	if !seen || status.Remaining > 0 || status.Reset.IsZero() {
		return nil
	}

	wait := status.Reset.Sub(t.now())
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
