package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter mounts /health, the webhook routes and /metrics.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/health", g.handleHealth())

	// Webhooks carry their own HMAC auth per source.
	r.Get("/webhooks/{source}", g.dispatcher.ServeVerify)
	r.Post("/webhooks/{source}", g.dispatcher.ServeHTTP)

	r.Group(func(r chi.Router) {
		if g.config.Auth.IsConfigured() {
			r.Use(requireAuth(g.config.Auth))
		}
		r.Handle("/metrics", promhttp.Handler())
	})

	return r
}
