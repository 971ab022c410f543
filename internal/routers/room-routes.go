package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/tangytongues/WatchTogether/internal/handlers"
	room_handler "github.com/tangytongues/WatchTogether/internal/handlers/room-handler"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

func RoomRouter(r chi.Router, store repo.Store) {
	h := room_handler.NewRoomHandler(store)

	r.Route("/api/rooms/{roomId}", func(r chi.Router) {
		r.Get("/", handlers.WrapHandler(h.HandleGetRoom))
		r.Patch("/", handlers.WrapHandler(h.HandleUpdateRoom))

		r.Post("/files", handlers.WrapHandler(h.HandleShareFile))
		r.Get("/files", handlers.WrapHandler(h.HandleListFiles))

		r.Post("/media", handlers.WrapHandler(h.HandleShareMedia))
		r.Get("/media", handlers.WrapHandler(h.HandleListMedia))

		r.Post("/annotations", handlers.WrapHandler(h.HandleAddAnnotation))
		r.Get("/annotations", handlers.WrapHandler(h.HandleListAnnotations))
		r.Delete("/annotations", handlers.WrapHandler(h.HandleClearAnnotations))
	})
}
