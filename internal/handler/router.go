package handler

import (
	"net/http"

	"pdf-revision-engine/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(revisionHandler *RevisionHandler, logger domain.Logger, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	// /pdf paths reach ResolveFile unmodified so traversal is rejected there.
	router.SkipClean(true)
	router.Use(LoggingMiddleware(logger), RecoveryMiddleware(logger))

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"pdf-revision-engine"}`))
	}).Methods("GET")

	// API prefix
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/upload", revisionHandler.Upload).Methods("POST")

	router.HandleFunc("/upload", revisionHandler.Upload).Methods("POST")
	router.HandleFunc("/page/{page_number}", revisionHandler.Page).Methods("GET")
	router.HandleFunc("/correct", revisionHandler.Correct).Methods("POST")
	router.HandleFunc("/comment", revisionHandler.Comment).Methods("POST")
	router.HandleFunc("/session/{session_id}", revisionHandler.GetSession).Methods("GET")
	router.HandleFunc("/session/{session_id}", revisionHandler.DeleteSession).Methods("DELETE")
	router.HandleFunc("/pdf/{filename:.*}", revisionHandler.ServePDF).Methods("GET")

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-CSRF-Token",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
