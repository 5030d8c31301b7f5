package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"pdf-revision-engine/internal/domain"
)

func newSession(text ...string) *Session {
	doc := &domain.DocumentLayout{Pages: make([]domain.PageLayout, len(text))}
	return New(NewID(), "dir", "doc.pdf", "dir/upload/doc.pdf", doc, text)
}

func TestNew(t *testing.T) {
	s := newSession("Hello world", "")
	if s.ID == "" || s.State != domain.SessionCreated {
		t.Fatalf("unexpected session %+v", s)
	}
	if s.CurrentPath != s.SourcePath {
		t.Fatalf("current path should start at the source, got %q", s.CurrentPath)
	}
	s.EditedText[0] = "changed"
	if s.BaselineText[0] != "Hello world" {
		t.Fatal("edited text must not alias the baseline")
	}
	if s.Live == s.Baseline {
		t.Fatal("live layout must not alias the baseline")
	}
	if s.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", s.PageCount())
	}
}

func TestSummary(t *testing.T) {
	s := newSession("a", "b", "c")
	s.EditedText[1] = "B"
	s.MarkEdited()

	sum := s.Summary()
	if sum.State != domain.SessionEdited {
		t.Fatalf("expected EDITED, got %s", sum.State)
	}
	if len(sum.EditedPages) != 1 || sum.EditedPages[0] != 1 {
		t.Fatalf("expected edited page 1, got %v", sum.EditedPages)
	}
	if sum.TotalPages != 3 {
		t.Fatalf("expected 3 pages, got %d", sum.TotalPages)
	}
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore()
	if _, err := store.Get("missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestStore_AddGetDelete(t *testing.T) {
	var evicted []string
	store := NewStore(WithEvictHandler(func(s *Session) { evicted = append(evicted, s.ID) }))
	s := newSession("text")
	store.Add(s)

	got, err := store.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if !store.Delete(s.ID) {
		t.Fatal("expected delete to report existing session")
	}
	if store.Delete(s.ID) {
		t.Fatal("second delete should report missing session")
	}
	if !s.Closed() {
		t.Fatal("deleted session should be closed")
	}
	if len(evicted) != 1 || evicted[0] != s.ID {
		t.Fatalf("expected one evict callback, got %v", evicted)
	}

	store.Touch(s)
	if store.Len() != 0 {
		t.Fatal("touch must not resurrect a closed session")
	}
}

func TestStore_Capacity(t *testing.T) {
	var mu sync.Mutex
	var evicted []string
	store := NewStore(WithCapacity(2), WithEvictHandler(func(s *Session) {
		mu.Lock()
		evicted = append(evicted, s.ID)
		mu.Unlock()
	}))

	a, b, c := newSession("a"), newSession("b"), newSession("c")
	store.Add(a)
	store.Add(b)
	if _, err := store.Get(a.ID); err != nil {
		t.Fatalf("Get a: %v", err)
	}
	store.Add(c)

	if _, err := store.Get(b.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatal("least recently used session should be evicted")
	}
	if _, err := store.Get(a.ID); err != nil {
		t.Fatalf("recently used session evicted: %v", err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", store.Len())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(evicted) != 1 || evicted[0] != b.ID {
		t.Fatalf("unexpected evictions %v", evicted)
	}
}

func TestStore_TTL(t *testing.T) {
	store := NewStore(WithTTL(50 * time.Millisecond))
	s := newSession("a")
	store.Add(s)

	time.Sleep(120 * time.Millisecond)
	if _, err := store.Get(s.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatal("expired session should not be returned")
	}
}

func TestStore_UnboundedByDefault(t *testing.T) {
	store := NewStore()
	for i := 0; i < 100; i++ {
		store.Add(newSession("x"))
	}
	if store.Len() != 100 {
		t.Fatalf("expected 100 sessions, got %d", store.Len())
	}
}
