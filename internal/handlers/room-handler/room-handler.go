package room_handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/tangytongues/WatchTogether/internal/dtos/room_dto"
	"github.com/tangytongues/WatchTogether/internal/entity"
	app_error "github.com/tangytongues/WatchTogether/internal/errors"
	"github.com/tangytongues/WatchTogether/internal/handlers"
	"github.com/tangytongues/WatchTogether/internal/middleware"
	"github.com/tangytongues/WatchTogether/internal/repo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RoomHandler serves the room-scoped CRUD surface: room metadata plus the
// shared files, media links and annotations hanging off a room. Real-time
// fan-out of these records is the relay's job, announced by the client
// after the create succeeds here.
type RoomHandler struct {
	store    repo.Store
	validate *validator.Validate
}

func NewRoomHandler(store repo.Store) *RoomHandler {
	return &RoomHandler{store: store, validate: validator.New()}
}

func (h *RoomHandler) HandleGetRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	room, err := h.store.GetRoom(r.Context(), roomID)
	if errors.Is(err, repo.ErrNotFound) {
		return app_error.NotFound("room not found")
	}
	if err != nil {
		return app_error.Internal("failed to load room")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("room", room, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleUpdateRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	var upd repo.RoomUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		return app_error.BadRequest("invalid request body", "body")
	}
	if err := h.validate.Struct(&upd); err != nil {
		return app_error.BadRequest(err.Error(), "body")
	}

	room, err := h.store.UpdateRoom(r.Context(), roomID, upd)
	if errors.Is(err, repo.ErrNotFound) {
		return app_error.NotFound("room not found")
	}
	if err != nil {
		return app_error.Internal("failed to update room")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("room updated", room, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleShareFile(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	var req room_dto.ShareFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.BadRequest("invalid request body", "body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return app_error.BadRequest(err.Error(), "body")
	}

	file, err := h.store.AddSharedFile(r.Context(), &entity.SharedFile{
		RoomID:           roomID,
		UploaderID:       req.UploaderID,
		UploaderUsername: req.UploaderUsername,
		FileName:         req.FileName,
		FileURL:          req.FileURL,
		FileType:         req.FileType,
		FileSize:         req.FileSize,
	})
	if err != nil {
		return app_error.Internal("failed to share file")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("file shared", file, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleListFiles(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	files, err := h.store.ListRoomFiles(r.Context(), roomID)
	if err != nil {
		return app_error.Internal("failed to list files")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("room files", files, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleShareMedia(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	var req room_dto.ShareMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.BadRequest("invalid request body", "body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return app_error.BadRequest(err.Error(), "body")
	}

	media, err := h.store.AddSharedMedia(r.Context(), &entity.SharedMedia{
		RoomID:    roomID,
		UserID:    req.UserID,
		Username:  req.Username,
		MediaType: req.MediaType,
		MediaURL:  req.MediaURL,
		Title:     req.Title,
		Thumbnail: req.Thumbnail,
		Duration:  req.Duration,
	})
	if err != nil {
		return app_error.Internal("failed to share media")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("media shared", media, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleListMedia(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	media, err := h.store.ListRoomMedia(r.Context(), roomID)
	if err != nil {
		return app_error.Internal("failed to list media")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("room media", media, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleAddAnnotation(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	var req room_dto.AddAnnotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.BadRequest("invalid request body", "body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return app_error.BadRequest(err.Error(), "body")
	}

	annotation, err := h.store.AddAnnotation(r.Context(), &entity.Annotation{
		RoomID:   roomID,
		UserID:   req.UserID,
		Username: req.Username,
		Type:     req.Type,
		Data:     req.Data,
	})
	if err != nil {
		return app_error.Internal("failed to add annotation")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("annotation added", annotation, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleListAnnotations(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	annotations, err := h.store.ListRoomAnnotations(r.Context(), roomID)
	if err != nil {
		return app_error.Internal("failed to list annotations")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("room annotations", annotations, middleware.RequestID(r.Context())))
	return nil
}

func (h *RoomHandler) HandleClearAnnotations(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")
	if err := h.store.ClearRoomAnnotations(r.Context(), roomID); err != nil {
		return app_error.Internal("failed to clear annotations")
	}
	handlers.WriteJSON(w, http.StatusOK, handlers.CreateResponse("annotations cleared", map[string]bool{"success": true}, middleware.RequestID(r.Context())))
	return nil
}
