package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecoveryMiddleware_Panic(t *testing.T) {
	logger := NewMockHandlerLogger()
	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil layout")
	}))

	req := httptest.NewRequest(http.MethodPost, "/correct", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"success":false,"message":"Internal server error."}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
	if len(logger.Errors()) != 1 {
		t.Fatalf("expected panic to be logged once, got %v", logger.Errors())
	}
}

func TestRecoveryMiddleware_PassThrough(t *testing.T) {
	logger := NewMockHandlerLogger()
	h := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d", http.StatusAccepted, rr.Code)
	}
	if len(logger.Errors()) != 0 {
		t.Fatalf("unexpected errors logged: %v", logger.Errors())
	}
}

func TestLoggingMiddleware(t *testing.T) {
	logger := NewMockHandlerLogger()
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Session not found.")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/session/x", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
	if infos := logger.Infos(); len(infos) != 1 || infos[0] != "Request handled" {
		t.Fatalf("expected one request log line, got %v", infos)
	}
}

func TestStatusRecorder_ImplicitOK(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	rec.Write([]byte("ok"))
	rec.WriteHeader(http.StatusTeapot)

	if rec.status != http.StatusOK {
		t.Fatalf("expected first write to fix status 200, got %d", rec.status)
	}
}
