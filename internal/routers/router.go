package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tangytongues/WatchTogether/internal/metrics"
	"github.com/tangytongues/WatchTogether/internal/middleware"
	"github.com/tangytongues/WatchTogether/internal/relay"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

// NewRouter assembles the full HTTP surface: the REST CRUD routes, the
// relay's websocket endpoint and the operational endpoints.
func NewRouter(store repo.Store, reg *relay.Registry, ws *relay.Handler, rl *middleware.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestID)
	r.Use(metrics.Middleware)

	// Websocket upgrades bypass the per-IP API budget; one long-lived
	// connection is the normal case.
	r.Get("/ws", ws.HandleWS)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(rl.Handler)
		UserRouter(r, store)
		RoomRouter(r, store)
		RelayRouter(r, reg)
	})

	return r
}
