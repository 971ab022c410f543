package handlers

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/tangytongues/WatchTogether/internal/dtos"
	app_error "github.com/tangytongues/WatchTogether/internal/errors"
	"github.com/tangytongues/WatchTogether/internal/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request) *app_error.AppError

// WrapHandler turns the AppError-returning handler shape into a standard
// http.HandlerFunc with one place that renders errors.
func WrapHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			reqID := middleware.RequestID(r.Context())
			log.Error().Err(err).Str("requestId", reqID).Int("code", err.Code).Msg("api: request failed")
			WriteJSON(w, err.Code, dtos.Response[any]{
				Message:   "request failed",
				RequestID: reqID,
				Errors: &dtos.ErrorResponse{
					Code:    err.Code,
					Message: err.Message,
					Field:   err.Field,
				},
			})
		}
	}
}

func CreateResponse[T any](message string, data T, requestID string) dtos.Response[T] {
	return dtos.Response[T]{
		Message:   message,
		Data:      data,
		RequestID: requestID,
	}
}
