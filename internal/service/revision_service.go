package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"pdf-revision-engine/internal/corpus"
	"pdf-revision-engine/internal/domain"
	"pdf-revision-engine/internal/session"
	"pdf-revision-engine/internal/spelling"
	"pdf-revision-engine/internal/storage"
	apperrors "pdf-revision-engine/pkg/errors"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"
)

// RevisionDeps are the collaborators of a RevisionService. Archive may be nil.
type RevisionDeps struct {
	Store     *session.Store
	Files     *storage.LocalStore
	Extractor domain.LayoutExtractor
	Spelling  domain.SpellChecker
	Grammar   domain.GrammarChecker
	Aligner   domain.Aligner
	Patcher   domain.SpanPatcher
	Annotator domain.Annotator
	Archive   domain.RevisionArchive
	Logger    domain.Logger

	MaxFileSize     int64
	ExternalTimeout time.Duration
}

type RevisionService struct {
	store     *session.Store
	files     *storage.LocalStore
	extractor domain.LayoutExtractor
	spelling  domain.SpellChecker
	grammar   domain.GrammarChecker
	aligner   domain.Aligner
	patcher   domain.SpanPatcher
	annotator domain.Annotator
	archive   domain.RevisionArchive
	logger    domain.Logger

	maxFileSize     int64
	externalTimeout time.Duration
}

func NewRevisionService(deps RevisionDeps) *RevisionService {
	timeout := deps.ExternalTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RevisionService{
		store:           deps.Store,
		files:           deps.Files,
		extractor:       deps.Extractor,
		spelling:        deps.Spelling,
		grammar:         deps.Grammar,
		aligner:         deps.Aligner,
		patcher:         deps.Patcher,
		annotator:       deps.Annotator,
		archive:         deps.Archive,
		logger:          deps.Logger,
		maxFileSize:     deps.MaxFileSize,
		externalTimeout: timeout,
	}
}

// Upload stores the file, extracts its layout and opens a session. Nothing
// is registered or left on disk when any step fails.
func (s *RevisionService) Upload(ctx context.Context, filename string, file io.Reader) (*domain.UploadResult, error) {
	if file == nil || strings.TrimSpace(filename) == "" {
		return nil, domain.ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(filename)), ".pdf") {
		return nil, domain.ErrInvalidFile
	}

	id := session.NewID()
	name := storage.SanitizeFilename(filename)
	path, err := s.files.SaveUpload(id, name, file, s.maxFileSize)
	if err != nil {
		return nil, err
	}

	discard := func() {
		if err := s.files.Remove(id); err != nil {
			s.logger.Warn("Failed to remove rejected upload", "session_id", id, "error", err.Error())
		}
	}

	pages, err := api.PageCountFile(path)
	if err != nil || pages == 0 {
		discard()
		s.logger.Warn("Rejected unreadable upload", "filename", name)
		return nil, domain.ErrUnreadablePDF
	}

	doc, err := s.extractor.Extract(ctx, path)
	if err != nil {
		discard()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Error("Layout extraction failed", err, "filename", name)
		return nil, domain.ErrUnreadablePDF
	}

	texts := corpus.Build(doc)
	sess := session.New(id, s.files.SessionDir(id), name, path, doc, texts)
	s.store.Add(sess)

	s.logger.Info("Session created", "session_id", id, "filename", name, "pages", len(doc.Pages))
	return &domain.UploadResult{
		Success:    true,
		SessionID:  id,
		TotalPages: len(doc.Pages),
		Filename:   name,
		PDFPath:    s.files.Ref(path),
	}, nil
}

// Page returns the edited text of a page with its spelling and grammar
// findings. Checks run without the session lock; a failing grammar checker
// yields no suggestions.
func (s *RevisionService) Page(ctx context.Context, sessionID string, page int) (*domain.PageView, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	var text string
	if page >= 0 && page < sess.PageCount() {
		text = sess.EditedText[page]
	}
	sess.Unlock()

	view := &domain.PageView{
		Success:            true,
		PageNumber:         page,
		Text:               text,
		SpellingErrors:     map[string][]string{},
		GrammarSuggestions: []string{},
	}
	if strings.TrimSpace(text) == "" {
		return view, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		view.SpellingErrors = spelling.FindErrors(s.spelling, text)
		return nil
	})
	g.Go(func() error {
		view.GrammarSuggestions = s.grammarSuggestions(gctx, sessionID, page, text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *RevisionService) grammarSuggestions(ctx context.Context, sessionID string, page int, text string) []string {
	ctx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()

	issues, err := s.grammar.Check(ctx, text)
	if err != nil {
		s.logger.Warn("Grammar check failed", "session_id", sessionID, "page", page, "error", err.Error())
		return []string{}
	}
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Message)
	}
	return out
}

// Correct records the edited text of a page and renders a new revision from
// the source with every edited page applied.
func (s *RevisionService) Correct(ctx context.Context, req domain.CorrectionRequest) (*domain.RevisionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.store.Get(req.SessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	result, err := s.correctLocked(ctx, sess, req)
	sess.Unlock()
	if err != nil {
		return nil, err
	}

	s.archiveRevision(ctx, sess.ID, storage.CorrectedName)
	return result, nil
}

func (s *RevisionService) correctLocked(ctx context.Context, sess *session.Session, req domain.CorrectionRequest) (*domain.RevisionResult, error) {
	if req.PageNumber >= sess.PageCount() {
		return nil, &domain.ValidationError{Field: "page_number", Message: "is out of range"}
	}

	edited := append([]string(nil), sess.EditedText...)
	edited[req.PageNumber] = corpus.Normalize(req.Text)

	mappings := make(map[int][]domain.Replacement)
	for i := range edited {
		if edited[i] == sess.BaselineText[i] {
			continue
		}
		mappings[i] = s.aligner.Align(corpus.Words(sess.BaselineText[i]), corpus.Words(edited[i]))
	}

	out := s.files.OutputPath(sess.ID, storage.CorrectedName)
	res, err := s.patcher.Patch(ctx, domain.PatchRequest{
		SourcePath: sess.SourcePath,
		OutputPath: out,
		Baseline:   sess.Baseline,
		Mappings:   mappings,
		ModTime:    sess.CreatedAt,
	})
	if err != nil {
		s.logger.Error("Correction failed", err, "session_id", sess.ID, "page", req.PageNumber)
		return nil, err
	}

	sess.EditedText = edited
	sess.Live = res.Layout
	sess.CurrentPath = out
	sess.MarkEdited()
	s.store.Touch(sess)

	if len(sess.Comments) > 0 {
		if _, err := s.annotate(ctx, sess, sess.Comments); err != nil {
			s.logger.Warn("Failed to refresh annotations after correction",
				"session_id", sess.ID, "error", err.Error())
		}
	}

	s.logger.Info("Page corrected",
		"session_id", sess.ID,
		"page", req.PageNumber,
		"changed_words", res.ChangedWords)
	return &domain.RevisionResult{
		Success:       true,
		OutputPDFPath: s.files.Ref(out),
		ChangedWords:  res.ChangedWords,
	}, nil
}

// Comment adds a comment and re-applies every comment of the session to
// the current document. A target with no match is still recorded.
func (s *RevisionService) Comment(ctx context.Context, req domain.CommentRequest) (*domain.RevisionResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sess, err := s.store.Get(req.SessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	result, err := s.commentLocked(ctx, sess, req)
	sess.Unlock()
	if err != nil {
		return nil, err
	}

	s.archiveRevision(ctx, sess.ID, storage.CommentedName)
	return result, nil
}

func (s *RevisionService) commentLocked(ctx context.Context, sess *session.Session, req domain.CommentRequest) (*domain.RevisionResult, error) {
	if req.PageNumber >= sess.PageCount() {
		return nil, &domain.ValidationError{Field: "page_number", Message: "is out of range"}
	}

	comments := append(append([]domain.Comment(nil), sess.Comments...), domain.Comment{
		Page:       req.PageNumber,
		TargetText: req.TargetText,
		Note:       req.Comment,
		CreatedAt:  time.Now().UTC(),
	})

	res, err := s.annotate(ctx, sess, comments)
	if err != nil {
		s.logger.Error("Annotation failed", err, "session_id", sess.ID, "page", req.PageNumber)
		return nil, err
	}

	sess.Comments = comments
	sess.MarkAnnotated()
	s.store.Touch(sess)

	matches := res.Matches[len(res.Matches)-1]
	s.logger.Info("Comment applied",
		"session_id", sess.ID,
		"page", req.PageNumber,
		"matches", matches)
	return &domain.RevisionResult{
		Success:       true,
		OutputPDFPath: s.files.Ref(s.files.OutputPath(sess.ID, storage.CommentedName)),
		Matches:       &matches,
	}, nil
}

// annotate writes the commented revision of the session's current document.
// Callers hold the session lock.
func (s *RevisionService) annotate(ctx context.Context, sess *session.Session, comments []domain.Comment) (*domain.AnnotateResult, error) {
	return s.annotator.Apply(ctx, domain.AnnotateRequest{
		DocumentPath: sess.CurrentPath,
		OutputPath:   s.files.OutputPath(sess.ID, storage.CommentedName),
		Layout:       sess.Live,
		Comments:     comments,
	})
}

// archiveRevision copies a revision to the archive, if one is configured.
// Failures are logged only.
func (s *RevisionService) archiveRevision(ctx context.Context, sessionID, name string) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.externalTimeout)
	defer cancel()

	object := sessionID + "/" + name
	if err := s.archive.Archive(ctx, object, s.files.OutputPath(sessionID, name)); err != nil {
		s.logger.Warn("Failed to archive revision", "object", object, "error", err.Error())
	}
}

func (s *RevisionService) Session(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Lock()
	defer sess.Unlock()

	summary := sess.Summary()
	summary.CurrentPDF = s.files.Ref(sess.CurrentPath)
	return summary, nil
}

// CloseSession drops a session. Its files are removed by the store's
// eviction handler.
func (s *RevisionService) CloseSession(ctx context.Context, sessionID string) error {
	if !s.store.Delete(sessionID) {
		return domain.ErrSessionNotFound
	}
	s.logger.Info("Session closed", "session_id", sessionID)
	return nil
}

// ResolveFile maps a served document reference to a path under the upload
// root.
func (s *RevisionService) ResolveFile(name string) (string, error) {
	path, err := s.files.Resolve(name)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPath) {
			return "", apperrors.NewValidationError("Invalid file path.")
		}
		return "", err
	}
	return path, nil
}

var _ domain.RevisionService = (*RevisionService)(nil)
