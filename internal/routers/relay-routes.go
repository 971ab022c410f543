package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/tangytongues/WatchTogether/internal/handlers"
	relay_handler "github.com/tangytongues/WatchTogether/internal/handlers/relay-handler"
	"github.com/tangytongues/WatchTogether/internal/relay"
)

func RelayRouter(r chi.Router, reg *relay.Registry) {
	h := relay_handler.NewRelayHandler(reg)

	r.Get("/api/health", h.HandleHealth)
	r.Get("/api/stats", handlers.WrapHandler(h.HandleStats))
	r.Get("/api/rooms/{roomId}/stats", handlers.WrapHandler(h.HandleRoomStats))
}
