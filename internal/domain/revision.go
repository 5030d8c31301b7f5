package domain

import (
	"strings"
	"time"
)

// Replacement maps one original word position to the edited word.
type Replacement struct {
	Position int    `json:"position"`
	Original string `json:"original"`
	Word     string `json:"word"`
}

// IsNoop reports whether applying r would leave the page unchanged.
func (r Replacement) IsNoop() bool {
	return r.Original == "" || r.Original == r.Word
}

// SessionState tracks where a session sits in its lifecycle.
type SessionState string

const (
	SessionCreated   SessionState = "CREATED"
	SessionEdited    SessionState = "EDITED"
	SessionAnnotated SessionState = "ANNOTATED"
)

// Comment is a note tied to text on a page. Geometry is resolved on apply.
type Comment struct {
	Page       int       `json:"page"`
	TargetText string    `json:"target_text"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *Comment) Validate() error {
	if c.Page < 0 {
		return &ValidationError{Field: "page_number", Message: "must not be negative"}
	}
	if strings.TrimSpace(c.TargetText) == "" {
		return &ValidationError{Field: "target_text", Message: "is required"}
	}
	if strings.TrimSpace(c.Note) == "" {
		return &ValidationError{Field: "comment", Message: "is required"}
	}
	return nil
}

// GrammarIssue is one finding from a grammar checker.
type GrammarIssue struct {
	Message string `json:"message"`
	Offset  int    `json:"offset"`
	Length  int    `json:"length"`
	Rule    string `json:"rule,omitempty"`
}

// UploadResult is returned after a document is registered.
type UploadResult struct {
	Success    bool   `json:"success"`
	SessionID  string `json:"session_id"`
	TotalPages int    `json:"total_pages"`
	Filename   string `json:"filename"`
	PDFPath    string `json:"pdf_path"`
}

// PageView is the text of one page with its spelling and grammar findings.
type PageView struct {
	Success            bool                `json:"success"`
	PageNumber         int                 `json:"page_number"`
	Text               string              `json:"text"`
	SpellingErrors     map[string][]string `json:"spelling_errors"`
	GrammarSuggestions []string            `json:"grammar_suggestions"`
}

// CorrectionRequest carries the edited text for one page.
type CorrectionRequest struct {
	SessionID  string `json:"session_id"`
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

func (r *CorrectionRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return &ValidationError{Field: "session_id", Message: "is required"}
	}
	if r.PageNumber < 0 {
		return &ValidationError{Field: "page_number", Message: "must not be negative"}
	}
	return nil
}

// CommentRequest carries one new comment for a page.
type CommentRequest struct {
	SessionID  string `json:"session_id"`
	PageNumber int    `json:"page_number"`
	TargetText string `json:"target_text"`
	Comment    string `json:"comment"`
}

func (r *CommentRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return &ValidationError{Field: "session_id", Message: "is required"}
	}
	c := Comment{Page: r.PageNumber, TargetText: r.TargetText, Note: r.Comment}
	return c.Validate()
}

// RevisionResult describes a produced revision.
type RevisionResult struct {
	Success       bool   `json:"success"`
	OutputPDFPath string `json:"output_pdf_path,omitempty"`
	Message       string `json:"message,omitempty"`
	ChangedWords  int    `json:"changed_words,omitempty"`
	Matches       *int   `json:"matches,omitempty"`
}

// SessionSummary is the public view of a session.
type SessionSummary struct {
	SessionID   string       `json:"session_id"`
	Filename    string       `json:"filename"`
	State       SessionState `json:"state"`
	TotalPages  int          `json:"total_pages"`
	CurrentPDF  string       `json:"current_pdf"`
	Comments    []Comment    `json:"comments"`
	EditedPages []int        `json:"edited_pages"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// PatchRequest asks the patcher to render a revision of SourcePath.
// Mappings is keyed by page index.
type PatchRequest struct {
	SourcePath string
	OutputPath string
	Baseline   *DocumentLayout
	Mappings   map[int][]Replacement
	ModTime    time.Time
}

// PatchResult carries the live layout after patching.
type PatchResult struct {
	Layout       *DocumentLayout
	ChangedSpans int
	ChangedWords int
}

// AnnotateRequest asks the annotator to apply every comment to DocumentPath.
type AnnotateRequest struct {
	DocumentPath string
	OutputPath   string
	Layout       *DocumentLayout
	Comments     []Comment
}

// AnnotateResult reports matches per comment, in comment order.
type AnnotateResult struct {
	Matches     []int
	Annotations int
}

// ArchivedRevision is one revision copied to the archive bucket.
type ArchivedRevision struct {
	SessionID  string    `json:"session_id"`
	Bucket     string    `json:"bucket"`
	ObjectPath string    `json:"object_path"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}
