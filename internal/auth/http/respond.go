package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/plumeworks/plume/internal/auth/service"
	"github.com/plumeworks/plume/pkg/httpx"
	"github.com/plumeworks/plume/pkg/slogx"
)

// ErrorMessage is one client-facing problem, optionally tied to a request
// field.
type ErrorMessage struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ErrorResponse is the error body shape shared by every endpoint.
type ErrorResponse struct {
	ErrorsMessages []ErrorMessage `json:"errorsMessages"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	httpx.WriteJSON(w, status, ErrorResponse{
		ErrorsMessages: []ErrorMessage{{Message: message}},
	})
}

func writeFieldErrors(w http.ResponseWriter, msgs []ErrorMessage) {
	httpx.WriteJSON(w, http.StatusBadRequest, ErrorResponse{ErrorsMessages: msgs})
}

// writeServiceError maps service sentinels onto their fixed status codes.
// Anything unclassified is an internal error and the client learns nothing
// beyond that.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrEmailNotConfirmed),
		errors.Is(err, service.ErrRefreshTokenIncorrect):
		writeError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, service.ErrMessageNotSent),
		errors.Is(err, service.ErrAlreadyConfirmed),
		errors.Is(err, service.ErrCodeExpired),
		errors.Is(err, service.ErrLoginTaken),
		errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, err.Error())

	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON parses the request body; a malformed body is a 400 the caller
// does not need to handle.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
