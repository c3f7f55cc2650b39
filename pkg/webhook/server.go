// Package webhook receives GitHub push deliveries and runs the drafter for
// each one in the background.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/holon-run/drafter/pkg/drafter"
	"github.com/holon-run/drafter/pkg/log"
)

// Runner runs the pipeline for one event
type Runner interface {
	Run(ctx context.Context, ev drafter.Event) (drafter.Outcome, error)
}

// Option configures a Server
type Option func(*Server)

// WithSecret enables X-Hub-Signature-256 validation
func WithSecret(secret string) Option {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

// WithRunTimeout bounds every pipeline run
func WithRunTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.runTimeout = d
		}
	}
}

// WithAddr sets the listen address
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// Server accepts webhook deliveries. Every accepted push starts an
// independent run; Shutdown waits for runs in flight.
type Server struct {
	runner     Runner
	secret     []byte
	runTimeout time.Duration
	addr       string

	handler http.Handler
	httpSrv *http.Server

	// runCtx is cancelled when Shutdown gives up waiting
	runCtx    context.Context
	cancelRun context.CancelFunc
	wg        sync.WaitGroup

	// mu guards closed; no run starts once closed is set
	mu     sync.Mutex
	closed bool
}

// NewServer creates a server for runner
func NewServer(runner Runner, opts ...Option) *Server {
	s := &Server{
		runner:     runner,
		runTimeout: 2 * time.Minute,
		addr:       ":8080",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.runCtx, s.cancelRun = context.WithCancel(context.Background())
	s.handler = NewRouter(s)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("webhook server listening", "addr", s.addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webhook server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting deliveries and waits for running pipelines until
// ctx is done. Runs still going at that point are cancelled. Deliveries that
// arrive while shutting down are answered with 503.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.cancelRun()
		<-done
		if err == nil {
			err = ctx.Err()
		}
	}
	s.cancelRun()
	return err
}

// Wait blocks until every started run has finished
func (s *Server) Wait() {
	s.wg.Wait()
}

// HealthCheck answers GET /healthz
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleWebhook answers POST /webhook
func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	delivery := github.DeliveryID(r)

	payload, err := github.ValidatePayload(r, s.secret)
	if err != nil {
		log.Warn("rejected webhook delivery", "delivery", delivery, "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	eventType := github.WebHookType(r)
	switch eventType {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]string{"status": "pong"})
		return
	case "push":
	default:
		log.Debug("ignoring webhook event", "event", eventType, "delivery", delivery)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	parsed, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	push, ok := parsed.(*github.PushEvent)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unexpected payload"})
		return
	}
	if push.GetDeleted() {
		log.Debug("ignoring branch deletion", "ref", push.GetRef(), "delivery", delivery)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ev, err := EventFromPush(push)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ev.DeliveryID = delivery

	if !s.start(ev) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server is shutting down"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "delivery": delivery})
}

// start launches a run for ev. It returns false once Shutdown has begun.
func (s *Server) start(ev drafter.Event) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.runCtx, s.runTimeout)
		defer cancel()

		out, err := s.runner.Run(ctx, ev)
		if err != nil {
			log.Error("draft run failed", "repo", ev.FullName(), "delivery", ev.DeliveryID, "error", err)
			return
		}
		log.Info("draft run finished", "repo", ev.FullName(), "delivery", ev.DeliveryID, "status", out.Status)
	}()
	return true
}

// EventFromPush converts a push payload into a pipeline event
func EventFromPush(push *github.PushEvent) (drafter.Event, error) {
	repo := push.GetRepo()
	if repo == nil {
		return drafter.Event{}, errors.New("push payload has no repository")
	}

	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = repo.GetOwner().GetName()
	}
	if owner == "" || repo.GetName() == "" {
		return drafter.Event{}, errors.New("push payload has no repository owner or name")
	}

	return drafter.Event{
		Owner:         owner,
		Repo:          repo.GetName(),
		DefaultBranch: repo.GetDefaultBranch(),
		Ref:           push.GetRef(),
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
