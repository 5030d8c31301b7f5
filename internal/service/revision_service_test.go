package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"pdf-revision-engine/internal/align"
	"pdf-revision-engine/internal/annotate"
	"pdf-revision-engine/internal/corpus"
	"pdf-revision-engine/internal/domain"
	"pdf-revision-engine/internal/grammar"
	"pdf-revision-engine/internal/layout"
	"pdf-revision-engine/internal/patch"
	"pdf-revision-engine/internal/session"
	"pdf-revision-engine/internal/spelling"
	"pdf-revision-engine/internal/storage"
	"pdf-revision-engine/internal/testutil"
	apperrors "pdf-revision-engine/pkg/errors"
)

// MockGrammarChecker returns fixed issues or a fixed error.
type MockGrammarChecker struct {
	issues []domain.GrammarIssue
	err    error
}

func (m *MockGrammarChecker) Check(ctx context.Context, text string) ([]domain.GrammarIssue, error) {
	return m.issues, m.err
}

// MockArchive records archived objects.
type MockArchive struct {
	mu      sync.Mutex
	objects []string
	err     error
}

func (m *MockArchive) Archive(ctx context.Context, objectPath, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := os.Stat(localPath); err != nil {
		return err
	}
	m.objects = append(m.objects, objectPath)
	return m.err
}

// FailingPatcher always fails to serialize.
type FailingPatcher struct{}

func (FailingPatcher) Patch(ctx context.Context, req domain.PatchRequest) (*domain.PatchResult, error) {
	return nil, apperrors.NewSerializationError("disk full", nil)
}

type fixture struct {
	svc     *RevisionService
	files   *storage.LocalStore
	store   *session.Store
	archive *MockArchive
	logger  *testutil.Logger
	dir     string
}

func newFixture(t *testing.T, opts ...func(*RevisionDeps)) *fixture {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatal(err)
	}
	checker, err := spelling.NewChecker("")
	if err != nil {
		t.Fatal(err)
	}
	logger := testutil.NewLogger()
	store := session.NewStore(session.WithEvictHandler(func(s *session.Session) {
		files.Remove(s.ID)
	}))
	archive := &MockArchive{}

	deps := RevisionDeps{
		Store:       store,
		Files:       files,
		Extractor:   layout.NewPDFExtractor(nil, logger),
		Spelling:    checker,
		Grammar:     grammar.NewRuleChecker(),
		Aligner:     align.Positional{},
		Patcher:     patch.NewPatcher(logger),
		Annotator:   annotate.NewPDFAnnotator(logger),
		Archive:     archive,
		Logger:      logger,
		MaxFileSize: 10 << 20,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return &fixture{
		svc:     NewRevisionService(deps),
		files:   files,
		store:   store,
		archive: archive,
		logger:  logger,
		dir:     dir,
	}
}

func (f *fixture) upload(t *testing.T, pages [][]testutil.TextLine) *domain.UploadResult {
	t.Helper()
	src := testutil.WritePDF(t, f.dir, "input.pdf", pages)
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.Upload(context.Background(), "input.pdf", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return res
}

func onePage(text string) [][]testutil.TextLine {
	return [][]testutil.TextLine{{{Text: text, X: 72, Y: 100}}}
}

func TestRevisionService_EndToEndCorrection(t *testing.T) {
	f := newFixture(t)
	up := f.upload(t, onePage("Helo wrld"))
	if !up.Success || up.TotalPages != 1 || up.Filename != "input.pdf" {
		t.Fatalf("unexpected upload result %+v", up)
	}

	view, err := f.svc.Page(context.Background(), up.SessionID, 0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if view.Text != "Helo wrld" {
		t.Fatalf("unexpected page text %q", view.Text)
	}
	found := false
	for _, s := range view.SpellingErrors["Helo"] {
		if s == "Hello" {
			found = true
		}
	}
	if !found || len(view.SpellingErrors["Helo"]) > 3 {
		t.Fatalf("expected Hello among suggestions, got %v", view.SpellingErrors)
	}

	res, err := f.svc.Correct(context.Background(), domain.CorrectionRequest{
		SessionID: up.SessionID, PageNumber: 0, Text: "Hello world",
	})
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if !res.Success || res.OutputPDFPath != up.SessionID+"/corrected.pdf" || res.ChangedWords != 2 {
		t.Fatalf("unexpected correction result %+v", res)
	}

	path, err := f.svc.ResolveFile(res.OutputPDFPath)
	if err != nil {
		t.Fatalf("ResolveFile: %v", err)
	}
	doc, err := layout.NewPDFExtractor(nil, f.logger).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract corrected: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected one page, got %d", len(doc.Pages))
	}
	if got := corpus.PageText(&doc.Pages[0]); got != "Hello world" {
		t.Fatalf("corrected document reads %q", got)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	again, err := f.svc.Correct(context.Background(), domain.CorrectionRequest{
		SessionID: up.SessionID, PageNumber: 0, Text: "Hello world",
	})
	if err != nil {
		t.Fatalf("repeated Correct: %v", err)
	}
	if again.OutputPDFPath != res.OutputPDFPath {
		t.Fatalf("repeated correction moved the output to %q", again.OutputPDFPath)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("repeating a correction changed the document bytes")
	}

	view, _ = f.svc.Page(context.Background(), up.SessionID, 0)
	if view.Text != "Hello world" || len(view.SpellingErrors) != 0 {
		t.Fatalf("unexpected view after correction %+v", view)
	}

	sum, _ := f.svc.Session(context.Background(), up.SessionID)
	if sum.State != domain.SessionEdited || sum.CurrentPDF != res.OutputPDFPath {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(f.archive.objects) != 2 || f.archive.objects[0] != up.SessionID+"/corrected.pdf" {
		t.Fatalf("unexpected archive calls %v", f.archive.objects)
	}
}

func TestRevisionService_UnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Correct(context.Background(), domain.CorrectionRequest{SessionID: "nope", Text: "x"})
	if !errors.Is(err, domain.ErrSessionNotFound) || err.Error() != "Session not found." {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := f.svc.Page(context.Background(), "nope", 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Page: expected session not found, got %v", err)
	}
	if _, err := f.svc.Comment(context.Background(), domain.CommentRequest{
		SessionID: "nope", TargetText: "a", Comment: "b",
	}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Comment: expected session not found, got %v", err)
	}

	entries, _ := os.ReadDir(f.files.Root())
	if len(entries) != 0 {
		t.Fatalf("no files should be created, found %v", entries)
	}
}

func TestRevisionService_CommentWithoutMatch(t *testing.T) {
	f := newFixture(t)
	up := f.upload(t, onePage("Hello world"))

	res, err := f.svc.Comment(context.Background(), domain.CommentRequest{
		SessionID: up.SessionID, PageNumber: 0, TargetText: "absent", Comment: "note",
	})
	if err != nil {
		t.Fatalf("Comment: %v", err)
	}
	if !res.Success || res.Matches == nil || *res.Matches != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	sum, _ := f.svc.Session(context.Background(), up.SessionID)
	if len(sum.Comments) != 1 || sum.State != domain.SessionAnnotated {
		t.Fatalf("comment should be recorded, got %+v", sum)
	}
	if _, err := f.svc.ResolveFile(res.OutputPDFPath); err != nil {
		t.Fatalf("commented revision missing: %v", err)
	}
}

func TestRevisionService_CommentWithMatch(t *testing.T) {
	f := newFixture(t)
	up := f.upload(t, onePage("Hello world"))

	for i := 0; i < 2; i++ {
		res, err := f.svc.Comment(context.Background(), domain.CommentRequest{
			SessionID: up.SessionID, PageNumber: 0, TargetText: "world", Comment: "check",
		})
		if err != nil {
			t.Fatalf("Comment: %v", err)
		}
		if *res.Matches != 1 {
			t.Fatalf("expected one match, got %d", *res.Matches)
		}
	}
	sum, _ := f.svc.Session(context.Background(), up.SessionID)
	if len(sum.Comments) != 2 {
		t.Fatalf("expected two recorded comments, got %d", len(sum.Comments))
	}
}

func TestRevisionService_CorrectionFailureKeepsState(t *testing.T) {
	f := newFixture(t, func(d *RevisionDeps) { d.Patcher = FailingPatcher{} })
	up := f.upload(t, onePage("Helo wrld"))

	_, err := f.svc.Correct(context.Background(), domain.CorrectionRequest{
		SessionID: up.SessionID, PageNumber: 0, Text: "Hello world",
	})
	if !apperrors.IsType(err, apperrors.ErrorTypeSerialization) {
		t.Fatalf("expected serialization error, got %v", err)
	}

	view, _ := f.svc.Page(context.Background(), up.SessionID, 0)
	if view.Text != "Helo wrld" {
		t.Fatalf("edited text must be unchanged, got %q", view.Text)
	}
	sum, _ := f.svc.Session(context.Background(), up.SessionID)
	if sum.State != domain.SessionCreated || sum.CurrentPDF != up.PDFPath {
		t.Fatalf("session must be untouched, got %+v", sum)
	}
	if len(f.archive.objects) != 0 {
		t.Fatal("nothing should be archived")
	}
}

func TestRevisionService_UploadRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		body     string
		want     error
	}{
		{"no filename", "", "%PDF-1.4", domain.ErrNoFile},
		{"wrong extension", "notes.txt", "hello", domain.ErrInvalidFile},
		{"empty", "a.pdf", "", domain.ErrEmptyFile},
		{"not a pdf", "a.pdf", "plain text pretending", domain.ErrUnreadablePDF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Upload(context.Background(), tt.filename, strings.NewReader(tt.body))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if f.store.Len() != 0 {
				t.Fatal("no session should be registered")
			}
			entries, _ := os.ReadDir(f.files.Root())
			if len(entries) != 0 {
				t.Fatalf("rejected upload left files: %v", entries)
			}
		})
	}
}

func TestRevisionService_UploadTooLarge(t *testing.T) {
	f := newFixture(t, func(d *RevisionDeps) { d.MaxFileSize = 16 })
	_, err := f.svc.Upload(context.Background(), "a.pdf", strings.NewReader(strings.Repeat("x", 64)))
	if !errors.Is(err, domain.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestRevisionService_PageEdgeCases(t *testing.T) {
	f := newFixture(t, func(d *RevisionDeps) {
		d.Grammar = &MockGrammarChecker{err: apperrors.NewExternalServiceError("down", nil)}
	})
	up := f.upload(t, [][]testutil.TextLine{{{Text: "this is fine", X: 72, Y: 100}}, {}})

	for _, page := range []int{-1, 1, 5} {
		view, err := f.svc.Page(context.Background(), up.SessionID, page)
		if err != nil {
			t.Fatalf("Page(%d): %v", page, err)
		}
		if view.Text != "" || len(view.SpellingErrors) != 0 || len(view.GrammarSuggestions) != 0 {
			t.Fatalf("Page(%d) should be empty, got %+v", page, view)
		}
	}

	view, err := f.svc.Page(context.Background(), up.SessionID, 0)
	if err != nil {
		t.Fatalf("grammar failure must not fail the page: %v", err)
	}
	if view.GrammarSuggestions == nil || len(view.GrammarSuggestions) != 0 {
		t.Fatalf("expected empty grammar suggestions, got %v", view.GrammarSuggestions)
	}
}

func TestRevisionService_GrammarSuggestions(t *testing.T) {
	f := newFixture(t, func(d *RevisionDeps) {
		d.Grammar = &MockGrammarChecker{issues: []domain.GrammarIssue{
			{Message: "first", Offset: 0}, {Message: "second", Offset: 5},
		}}
	})
	up := f.upload(t, onePage("Hello world"))

	view, _ := f.svc.Page(context.Background(), up.SessionID, 0)
	if len(view.GrammarSuggestions) != 2 || view.GrammarSuggestions[0] != "first" {
		t.Fatalf("unexpected suggestions %v", view.GrammarSuggestions)
	}
}

func TestRevisionService_CorrectValidation(t *testing.T) {
	f := newFixture(t)
	up := f.upload(t, onePage("Hello world"))

	tests := []domain.CorrectionRequest{
		{SessionID: "", PageNumber: 0},
		{SessionID: up.SessionID, PageNumber: -1},
		{SessionID: up.SessionID, PageNumber: 3},
	}
	for _, req := range tests {
		var verr *domain.ValidationError
		if _, err := f.svc.Correct(context.Background(), req); !errors.As(err, &verr) {
			t.Errorf("Correct(%+v) expected validation error, got %v", req, err)
		}
	}
}

func TestRevisionService_ConcurrentCorrections(t *testing.T) {
	f := newFixture(t)
	up := f.upload(t, [][]testutil.TextLine{
		{{Text: "alpha beta", X: 72, Y: 100}},
		{{Text: "gamma delta", X: 72, Y: 100}},
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for page, text := range []string{"alpha BETA", "gamma DELTA"} {
		wg.Add(1)
		go func(page int, text string) {
			defer wg.Done()
			_, err := f.svc.Correct(context.Background(), domain.CorrectionRequest{
				SessionID: up.SessionID, PageNumber: page, Text: text,
			})
			errs <- err
		}(page, text)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Correct: %v", err)
		}
	}

	sum, _ := f.svc.Session(context.Background(), up.SessionID)
	if len(sum.EditedPages) != 2 {
		t.Fatalf("both edits must survive, got %v", sum.EditedPages)
	}
}

func TestRevisionService_CloseSession(t *testing.T) {
	f := newFixture(t)
	up := f.upload(t, onePage("Hello world"))

	if err := f.svc.CloseSession(context.Background(), up.SessionID); err != nil {
		t.Fatalf("CloseSession: %v", err)
	}
	if _, err := os.Stat(f.files.SessionDir(up.SessionID)); !os.IsNotExist(err) {
		t.Fatal("session files should be removed")
	}
	if err := f.svc.CloseSession(context.Background(), up.SessionID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found on second close, got %v", err)
	}
}

func TestRevisionService_ResolveFileRejectsTraversal(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ResolveFile("../../etc/passwd"); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
