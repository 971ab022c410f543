package user_handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/tangytongues/WatchTogether/internal/dtos/user_dto"
	"github.com/tangytongues/WatchTogether/internal/entity"
	app_error "github.com/tangytongues/WatchTogether/internal/errors"
	"github.com/tangytongues/WatchTogether/internal/handlers"
	"github.com/tangytongues/WatchTogether/internal/middleware"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UserHandler serves user accounts and room themes. Accounts are optional
// conveniences; nothing in the relay requires one.
type UserHandler struct {
	store    repo.Store
	validate *validator.Validate
}

func NewUserHandler(store repo.Store) *UserHandler {
	return &UserHandler{store: store, validate: validator.New()}
}

func (h *UserHandler) HandleCreateUser(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req user_dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.BadRequest("invalid request body", "body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return app_error.BadRequest(err.Error(), "body")
	}

	if _, err := h.store.GetUserByUsername(r.Context(), req.Username); err == nil {
		return app_error.BadRequest("username taken", "username")
	}

	user, err := h.store.CreateUser(r.Context(), &entity.User{
		Username:    req.Username,
		Email:       req.Email,
		AvatarURL:   req.AvatarURL,
		Preferences: req.Preferences,
	})
	if err != nil {
		return app_error.Internal("failed to create user")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("user created", user, middleware.RequestID(r.Context())))
	return nil
}

func (h *UserHandler) HandleGetUserByUsername(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	username := chi.URLParam(r, "username")
	user, err := h.store.GetUserByUsername(r.Context(), username)
	if errors.Is(err, repo.ErrNotFound) {
		return app_error.NotFound("user not found")
	}
	if err != nil {
		return app_error.Internal("failed to load user")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("user", user, middleware.RequestID(r.Context())))
	return nil
}

func (h *UserHandler) HandleCreateTheme(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req user_dto.CreateThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.BadRequest("invalid request body", "body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return app_error.BadRequest(err.Error(), "body")
	}

	theme, err := h.store.CreateTheme(r.Context(), &entity.RoomTheme{
		UserID:          req.UserID,
		Name:            req.Name,
		PrimaryColor:    req.PrimaryColor,
		SecondaryColor:  req.SecondaryColor,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
		IsPublic:        req.IsPublic,
	})
	if err != nil {
		return app_error.Internal("failed to create theme")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("theme created", theme, middleware.RequestID(r.Context())))
	return nil
}

func (h *UserHandler) HandleListUserThemes(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	userID := chi.URLParam(r, "userId")
	themes, err := h.store.ListUserThemes(r.Context(), userID)
	if err != nil {
		return app_error.Internal("failed to list themes")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("user themes", themes, middleware.RequestID(r.Context())))
	return nil
}

func (h *UserHandler) HandleListPublicThemes(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	themes, err := h.store.ListPublicThemes(r.Context())
	if err != nil {
		return app_error.Internal("failed to list themes")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("public themes", themes, middleware.RequestID(r.Context())))
	return nil
}
