package relay_handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	app_error "github.com/tangytongues/WatchTogether/internal/errors"
	"github.com/tangytongues/WatchTogether/internal/handlers"
	"github.com/tangytongues/WatchTogether/internal/middleware"
	"github.com/tangytongues/WatchTogether/internal/relay"
)

// RelayHandler exposes read-only operational views over the connection
// registry.
type RelayHandler struct {
	reg *relay.Registry
}

func NewRelayHandler(reg *relay.Registry) *RelayHandler {
	return &RelayHandler{reg: reg}
}

func (h *RelayHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	handlers.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "watchtogether-relay",
		"timestamp": time.Now().Unix(),
	})
}

func (h *RelayHandler) HandleStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	stats := map[string]any{
		"connections": h.reg.ConnCount(),
		"rooms":       h.reg.RoomCount(),
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("relay stats", stats, middleware.RequestID(r.Context())))
	return nil
}

func (h *RelayHandler) HandleRoomStats(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	size := h.reg.RoomSize(roomID)
	stats := map[string]any{
		"room_id":     roomID,
		"exists":      size > 0,
		"connections": size,
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("room stats", stats, middleware.RequestID(r.Context())))
	return nil
}
