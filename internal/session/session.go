// Package session keeps revision sessions in memory.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"pdf-revision-engine/internal/domain"

	"github.com/google/uuid"
)

// Session is the editing state of one uploaded document. Every field except
// ID is guarded by the session lock.
type Session struct {
	mu     sync.Mutex
	closed atomic.Bool

	ID         string
	Dir        string
	Filename   string
	SourcePath string
	// CurrentPath is the latest revision produced by a correction, or the
	// source until one exists.
	CurrentPath string

	Baseline     *domain.DocumentLayout
	Live         *domain.DocumentLayout
	BaselineText []string
	EditedText   []string
	Comments     []domain.Comment
	State        domain.SessionState

	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a session in the CREATED state. The edited text starts as a
// copy of the baseline.
func New(id, dir, filename, sourcePath string, baseline *domain.DocumentLayout, baselineText []string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		Dir:          dir,
		Filename:     filename,
		SourcePath:   sourcePath,
		CurrentPath:  sourcePath,
		Baseline:     baseline,
		Live:         baseline.Clone(),
		BaselineText: baselineText,
		EditedText:   append([]string(nil), baselineText...),
		State:        domain.SessionCreated,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewID returns a fresh opaque session id.
func NewID() string {
	return uuid.NewString()
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Closed reports whether the session was evicted or deleted. A caller that
// fetched the session before eviction must not resurrect it.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// PageCount is the number of pages in the baseline.
func (s *Session) PageCount() int {
	return len(s.BaselineText)
}

// Summary returns a copy safe to hand out. Callers hold the lock.
func (s *Session) Summary() *domain.SessionSummary {
	edited := make([]int, 0)
	for i := range s.EditedText {
		if s.EditedText[i] != s.BaselineText[i] {
			edited = append(edited, i)
		}
	}
	return &domain.SessionSummary{
		SessionID:   s.ID,
		Filename:    s.Filename,
		State:       s.State,
		TotalPages:  s.PageCount(),
		Comments:    append([]domain.Comment{}, s.Comments...),
		EditedPages: edited,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// transition records a state change. Callers hold the lock.
func (s *Session) transition(state domain.SessionState) {
	s.State = state
	s.UpdatedAt = time.Now().UTC()
}

// MarkEdited moves the session to EDITED. Callers hold the lock.
func (s *Session) MarkEdited() { s.transition(domain.SessionEdited) }

// MarkAnnotated moves the session to ANNOTATED. Callers hold the lock.
func (s *Session) MarkAnnotated() { s.transition(domain.SessionAnnotated) }
