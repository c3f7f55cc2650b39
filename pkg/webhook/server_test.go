package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/holon-run/drafter/pkg/drafter"
)

type recordingRunner struct {
	mu      sync.Mutex
	events  []drafter.Event
	block   chan struct{}
	ctxErrs []error
}

func (r *recordingRunner) Run(ctx context.Context, ev drafter.Event) (drafter.Outcome, error) {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return drafter.Outcome{Status: drafter.StatusCreated}, nil
}

func (r *recordingRunner) recorded() []drafter.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]drafter.Event(nil), r.events...)
}

const pushPayload = `{
  "ref": "refs/heads/main",
  "deleted": false,
  "repository": {
    "name": "hello",
    "default_branch": "main",
    "owner": {"login": "octo", "name": "octo"}
  }
}`

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func deliver(t *testing.T, h http.Handler, event, body, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", event)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleWebhook_Push(t *testing.T) {
	runner := &recordingRunner{}
	srv := NewServer(runner, WithSecret("s3cret"))

	rec := deliver(t, srv.Handler(), "push", pushPayload, sign("s3cret", pushPayload))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	srv.Wait()

	events := runner.recorded()
	if len(events) != 1 {
		t.Fatalf("runs = %d, want 1", len(events))
	}
	want := drafter.Event{Owner: "octo", Repo: "hello", DefaultBranch: "main", Ref: "refs/heads/main", DeliveryID: "delivery-1"}
	if events[0] != want {
		t.Errorf("event = %+v, want %+v", events[0], want)
	}
}

func TestHandleWebhook_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		event     string
		body      string
		signature string
		wantCode  int
	}{
		{"bad signature", "s3cret", "push", pushPayload, sign("other", pushPayload), http.StatusUnauthorized},
		{"missing signature", "s3cret", "push", pushPayload, "", http.StatusUnauthorized},
		{"ping", "", "ping", `{"zen":"hi"}`, "", http.StatusOK},
		{"other event", "", "issues", `{}`, "", http.StatusNoContent},
		{"branch deletion", "", "push", `{"ref":"refs/heads/x","deleted":true,"repository":{"name":"r","owner":{"login":"o"}}}`, "", http.StatusNoContent},
		{"no repository", "", "push", `{"ref":"refs/heads/main"}`, "", http.StatusBadRequest},
		{"malformed json", "", "push", `{`, "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{}
			srv := NewServer(runner, WithSecret(tt.secret))

			rec := deliver(t, srv.Handler(), tt.event, tt.body, tt.signature)
			srv.Wait()

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if n := len(runner.recorded()); n != 0 {
				t.Errorf("runs = %d, want 0", n)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	srv := NewServer(&recordingRunner{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestShutdown_WaitsForRuns(t *testing.T) {
	runner := &recordingRunner{block: make(chan struct{})}
	srv := NewServer(runner)

	rec := deliver(t, srv.Handler(), "push", pushPayload, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Shutdown(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Shutdown returned while a run was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(runner.block)
	if err := <-done; err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if n := len(runner.recorded()); n != 1 {
		t.Errorf("runs = %d, want 1", n)
	}
}

func TestHandleWebhook_RejectsDuringShutdown(t *testing.T) {
	runner := &recordingRunner{block: make(chan struct{})}
	srv := NewServer(runner)
	deliver(t, srv.Handler(), "push", pushPayload, "")

	done := make(chan error, 1)
	go func() {
		done <- srv.Shutdown(context.Background())
	}()

	deadline := time.Now().Add(time.Second)
	for {
		srv.mu.Lock()
		closed := srv.closed
		srv.mu.Unlock()
		if closed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Shutdown did not start")
		}
		time.Sleep(time.Millisecond)
	}

	rec := deliver(t, srv.Handler(), "push", pushPayload, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	close(runner.block)
	if err := <-done; err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if n := len(runner.recorded()); n != 1 {
		t.Errorf("runs = %d, want 1", n)
	}
}

func TestShutdown_CancelsRunsAfterDeadline(t *testing.T) {
	runner := &recordingRunner{block: make(chan struct{})}
	srv := NewServer(runner)
	deliver(t, srv.Handler(), "push", pushPayload, "")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(ctx); err == nil {
		t.Error("Shutdown() error = nil, want deadline exceeded")
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.ctxErrs) != 1 || runner.ctxErrs[0] == nil {
		t.Errorf("run context errors = %v, want cancelled", runner.ctxErrs)
	}
}

func TestRunTimeout(t *testing.T) {
	runner := &recordingRunner{block: make(chan struct{})}
	srv := NewServer(runner, WithRunTimeout(5*time.Millisecond))
	deliver(t, srv.Handler(), "push", pushPayload, "")
	srv.Wait()

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.ctxErrs) != 1 || runner.ctxErrs[0] != context.DeadlineExceeded {
		t.Errorf("run context errors = %v, want deadline exceeded", runner.ctxErrs)
	}
}

func TestEventFromPush_OwnerNameFallback(t *testing.T) {
	push := &github.PushEvent{
		Ref: github.Ptr("refs/heads/dev"),
		Repo: &github.PushEventRepository{
			Name:  github.Ptr("r"),
			Owner: &github.User{Name: github.Ptr("org")},
		},
	}

	ev, err := EventFromPush(push)
	if err != nil {
		t.Fatalf("EventFromPush() error = %v", err)
	}
	if ev.Owner != "org" || ev.Repo != "r" || ev.Ref != "refs/heads/dev" {
		t.Errorf("event = %+v", ev)
	}
}
