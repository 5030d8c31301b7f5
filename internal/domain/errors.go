package domain

import "errors"

// Domain errors
var (
	ErrSessionNotFound = errors.New("Session not found.")
	ErrNoFile          = errors.New("No file uploaded.")
	ErrInvalidFile     = errors.New("Only PDF files are allowed.")
	ErrEmptyFile       = errors.New("Uploaded file is empty.")
	ErrFileTooLarge    = errors.New("Uploaded file is too large.")
	ErrUnreadablePDF   = errors.New("Uploaded file is not a readable PDF.")
	ErrInvalidPath     = errors.New("invalid file path")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
