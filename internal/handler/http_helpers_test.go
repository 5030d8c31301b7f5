package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, `say "nope"`)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %s", ct)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"success":false,"message":"say \"nope\""}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"session not found", fmt.Errorf("lookup: %w", domain.ErrSessionNotFound), http.StatusNotFound, "Session not found."},
		{"no file", domain.ErrNoFile, http.StatusBadRequest, "No file uploaded."},
		{"wrong extension", domain.ErrInvalidFile, http.StatusBadRequest, "Only PDF files are allowed."},
		{"empty", domain.ErrEmptyFile, http.StatusBadRequest, "Uploaded file is empty."},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "Uploaded file is too large."},
		{"unreadable", domain.ErrUnreadablePDF, http.StatusBadRequest, "Uploaded file is not a readable PDF."},
		{"validation", &domain.ValidationError{Field: "page_number", Message: "is out of range"}, http.StatusBadRequest, "page_number: is out of range"},
		{"not found", apperrors.NewNotFoundError("File not found."), http.StatusNotFound, "File not found."},
		{"serialization", apperrors.NewSerializationError("Failed to write revision.", errors.New("disk full")), http.StatusInternalServerError, "Failed to write revision."},
		{"internal", apperrors.NewInternalError("secret detail", errors.New("boom")), http.StatusInternalServerError, internalErrorMessage},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, internalErrorMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := errorStatus(tt.err)
			if status != tt.status || message != tt.message {
				t.Fatalf("expected %d %q, got %d %q", tt.status, tt.message, status, message)
			}
		})
	}
}
