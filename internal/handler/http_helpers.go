package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"
)

const internalErrorMessage = "Internal server error."

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Success: false, Message: message})
}

// errorStatus maps service errors onto a status code and a caller-facing
// message. Server-side failures never leak their cause.
func errorStatus(err error) (int, string) {
	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, domain.ErrSessionNotFound.Error()
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, domain.ErrFileTooLarge.Error()
	case errors.Is(err, domain.ErrNoFile),
		errors.Is(err, domain.ErrInvalidFile),
		errors.Is(err, domain.ErrEmptyFile),
		errors.Is(err, domain.ErrUnreadablePDF):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Error()
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type != apperrors.ErrorTypeInternal {
		return apperrors.GetStatusCode(err), appErr.Message
	}
	return http.StatusInternalServerError, internalErrorMessage
}
