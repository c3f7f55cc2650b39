package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the server's handlers
func NewRouter(server *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", server.HealthCheck)
	r.Post("/webhook", server.HandleWebhook)

	return r
}
