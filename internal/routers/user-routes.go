package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/tangytongues/WatchTogether/internal/handlers"
	user_handler "github.com/tangytongues/WatchTogether/internal/handlers/user-handler"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

func UserRouter(r chi.Router, store repo.Store) {
	h := user_handler.NewUserHandler(store)

	r.Post("/api/users", handlers.WrapHandler(h.HandleCreateUser))
	r.Get("/api/users/{username}", handlers.WrapHandler(h.HandleGetUserByUsername))

	r.Post("/api/themes", handlers.WrapHandler(h.HandleCreateTheme))
	r.Get("/api/themes/user/{userId}", handlers.WrapHandler(h.HandleListUserThemes))
	r.Get("/api/themes/public", handlers.WrapHandler(h.HandleListPublicThemes))
}
