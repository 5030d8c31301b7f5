package domain

import (
	"context"
	"io"
	"time"
)

// LayoutExtractor builds the span tree of every page of a PDF.
type LayoutExtractor interface {
	Extract(ctx context.Context, path string) (*DocumentLayout, error)
}

// PageRenderer rasterizes a page (0-based) to PNG.
type PageRenderer interface {
	RenderPage(ctx context.Context, path string, page int, dpi float64) ([]byte, error)
}

// TextRecognizer turns an image into lines of text.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte) ([]RecognizedLine, error)
}

// SpellChecker returns ordered suggestions for an unknown word, or nil when
// the word is known.
type SpellChecker interface {
	Suggest(word string) []string
}

// GrammarChecker reports grammar findings for a text in order of appearance.
type GrammarChecker interface {
	Check(ctx context.Context, text string) ([]GrammarIssue, error)
}

// Aligner maps original words onto edited words.
type Aligner interface {
	Align(original, edited []string) []Replacement
}

// SpanPatcher renders a revision with replaced words drawn over their spans.
type SpanPatcher interface {
	Patch(ctx context.Context, req PatchRequest) (*PatchResult, error)
}

// Annotator writes highlight and note annotations for located comments.
type Annotator interface {
	Apply(ctx context.Context, req AnnotateRequest) (*AnnotateResult, error)
}

// RevisionArchive stores produced revisions outside the local upload root.
type RevisionArchive interface {
	Archive(ctx context.Context, objectPath string, localPath string) error
}

// RevisionIndex keeps a queryable record of archived revisions.
type RevisionIndex interface {
	Record(ctx context.Context, rev ArchivedRevision) error
	List(ctx context.Context, sessionID string) ([]ArchivedRevision, error)
}

// RevisionService is the use-case surface consumed by the HTTP layer and CLI.
type RevisionService interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error)
	Page(ctx context.Context, sessionID string, page int) (*PageView, error)
	Correct(ctx context.Context, req CorrectionRequest) (*RevisionResult, error)
	Comment(ctx context.Context, req CommentRequest) (*RevisionResult, error)
	Session(ctx context.Context, sessionID string) (*SessionSummary, error)
	CloseSession(ctx context.Context, sessionID string) error
	ResolveFile(name string) (string, error)
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetUploadPath() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetSessionCapacity() int
	GetSessionTTL() time.Duration
	GetExternalTimeout() time.Duration
	IsOCREnabled() bool
	GetOCRLanguage() string
	GetOCRDPI() float64
	GetGrammarAPIURL() string
	GetGrammarLanguage() string
	GetSpellingDictionaryPath() string
	GetAlignmentStrategy() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetArchiveBucket() string
	GetAllowedOrigins() []string
}
