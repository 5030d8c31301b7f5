package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pdf-revision-engine/internal/domain"

	"github.com/gorilla/mux"
)

// multipartOverhead leaves room for form boundaries and headers on top of the
// file size limit.
const multipartOverhead = 1 << 20

// RevisionHandler exposes the revision service over HTTP.
type RevisionHandler struct {
	service     domain.RevisionService
	logger      domain.Logger
	maxFileSize int64
}

// NewRevisionHandler creates a new revision handler
func NewRevisionHandler(service domain.RevisionService, maxFileSize int64, logger domain.Logger) *RevisionHandler {
	return &RevisionHandler{
		service:     service,
		logger:      logger,
		maxFileSize: maxFileSize,
	}
}

// Upload handles POST /upload with a multipart "file" field.
func (h *RevisionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.ErrFileTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, domain.ErrNoFile.Error())
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.respondError(w, "Upload failed", err, "filename", header.Filename)
		return
	}

	h.logger.Info("Document uploaded", "session_id", result.SessionID, "pages", result.TotalPages)
	writeJSON(w, http.StatusOK, result)
}

// Page handles GET /page/{page_number}?session_id=.
func (h *RevisionHandler) Page(w http.ResponseWriter, r *http.Request) {
	pageNumber, err := strconv.Atoi(mux.Vars(r)["page_number"])
	if err != nil || pageNumber < 0 {
		writeError(w, http.StatusBadRequest, "Invalid page number.")
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required.")
		return
	}

	view, err := h.service.Page(r.Context(), sessionID, pageNumber)
	if err != nil {
		h.respondError(w, "Page view failed", err, "session_id", sessionID, "page", pageNumber)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Correct handles POST /correct.
func (h *RevisionHandler) Correct(w http.ResponseWriter, r *http.Request) {
	var req domain.CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.service.Correct(r.Context(), req)
	if err != nil {
		h.respondError(w, "Correction failed", err, "session_id", req.SessionID, "page", req.PageNumber)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Comment handles POST /comment.
func (h *RevisionHandler) Comment(w http.ResponseWriter, r *http.Request) {
	var req domain.CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := h.service.Comment(r.Context(), req)
	if err != nil {
		h.respondError(w, "Comment failed", err, "session_id", req.SessionID, "page", req.PageNumber)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSession handles GET /session/{session_id}.
func (h *RevisionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	summary, err := h.service.Session(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, "Session lookup failed", err, "session_id", sessionID)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// DeleteSession handles DELETE /session/{session_id}.
func (h *RevisionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	if err := h.service.CloseSession(r.Context(), sessionID); err != nil {
		h.respondError(w, "Session close failed", err, "session_id", sessionID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session closed.",
	})
}

// ServePDF handles GET /pdf/{filename}, serving files from the upload root.
func (h *RevisionHandler) ServePDF(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["filename"]
	path, err := h.service.ResolveFile(name)
	if err != nil {
		h.respondError(w, "File lookup failed", err, "filename", name)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

func (h *RevisionHandler) respondError(w http.ResponseWriter, msg string, err error, fields ...interface{}) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, err, fields...)
	} else {
		h.logger.Debug(msg, append(fields, "error", err.Error())...)
	}
	writeError(w, status, message)
}
