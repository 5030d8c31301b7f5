package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pdf-revision-engine/internal/domain"
	"pdf-revision-engine/internal/testutil"
	apperrors "pdf-revision-engine/pkg/errors"

	"github.com/supabase-community/postgrest-go"
)

type capturedRequest struct {
	method string
	path   string
	query  map[string]string
	prefer string
	body   map[string]interface{}
}

func newTableServer(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{query: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		for k := range r.URL.Query() {
			captured.query[k] = r.URL.Query().Get(k)
		}
		captured.prefer = r.Header.Get("Prefer")
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			json.Unmarshal(b, &captured.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestSupabaseRevisionIndex_Record(t *testing.T) {
	srv, req := newTableServer(t, http.StatusCreated, "")
	index := NewSupabaseRevisionIndex(postgrest.NewClient(srv.URL, "", nil), testutil.NewLogger())

	err := index.Record(context.Background(), domain.ArchivedRevision{
		SessionID:  "s1",
		Bucket:     "revisions",
		ObjectPath: "s1/corrected.pdf",
		Kind:       "corrected.pdf",
		CreatedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if req.method != http.MethodPost || req.path != "/revisions" {
		t.Fatalf("unexpected request %s %s", req.method, req.path)
	}
	if req.query["on_conflict"] != "session_id,object_path" {
		t.Fatalf("expected upsert on session and path, got %v", req.query)
	}
	if req.prefer != "resolution=merge-duplicates,return=minimal" {
		t.Fatalf("unexpected Prefer header %q", req.prefer)
	}
	if req.body["object_path"] != "s1/corrected.pdf" || req.body["created_at"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected row %v", req.body)
	}
}

func TestSupabaseRevisionIndex_List(t *testing.T) {
	rows := `[{"session_id":"s1","bucket":"revisions","object_path":"s1/commented.pdf","kind":"commented.pdf","created_at":"2026-01-02T03:05:00+00:00"},
	          {"session_id":"s1","bucket":"revisions","object_path":"s1/corrected.pdf","kind":"corrected.pdf","created_at":"2026-01-02T03:04:05+00:00"}]`
	srv, req := newTableServer(t, http.StatusOK, rows)
	index := NewSupabaseRevisionIndex(postgrest.NewClient(srv.URL, "", nil), testutil.NewLogger())

	got, err := index.List(context.Background(), "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if req.method != http.MethodGet || req.query["session_id"] != "eq.s1" || req.query["order"] != "created_at.desc.nullslast" {
		t.Fatalf("unexpected query %s %v", req.method, req.query)
	}
	if len(got) != 2 || got[0].Kind != "commented.pdf" || got[1].CreatedAt.Minute() != 4 {
		t.Fatalf("unexpected rows %+v", got)
	}
}

func TestSupabaseRevisionIndex_Errors(t *testing.T) {
	srv, _ := newTableServer(t, http.StatusNotFound, `{"code":"42P01","message":"relation \"revisions\" does not exist"}`)
	index := NewSupabaseRevisionIndex(postgrest.NewClient(srv.URL, "", nil), testutil.NewLogger())

	if err := index.Record(context.Background(), domain.ArchivedRevision{SessionID: "s1"}); !apperrors.IsType(err, apperrors.ErrorTypeExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if _, err := index.List(context.Background(), "s1"); !apperrors.IsType(err, apperrors.ErrorTypeExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := index.List(ctx, "s1"); err != context.Canceled {
		t.Fatalf("expected context error, got %v", err)
	}
}
