package config

import (
	"fmt"
	"strings"

	"pdf-revision-engine/internal/align"
	"pdf-revision-engine/internal/annotate"
	"pdf-revision-engine/internal/domain"
	"pdf-revision-engine/internal/grammar"
	"pdf-revision-engine/internal/infra/supabase"
	"pdf-revision-engine/internal/layout"
	"pdf-revision-engine/internal/patch"
	"pdf-revision-engine/internal/repository"
	"pdf-revision-engine/internal/service"
	"pdf-revision-engine/internal/session"
	"pdf-revision-engine/internal/spelling"
	"pdf-revision-engine/internal/storage"
	"pdf-revision-engine/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config          domain.Config
	Logger          domain.Logger
	Files           *storage.LocalStore
	Sessions        *session.Store
	Extractor       domain.LayoutExtractor
	Spelling        domain.SpellChecker
	Grammar         domain.GrammarChecker
	Aligner         domain.Aligner
	Patcher         domain.SpanPatcher
	Annotator       domain.Annotator
	Archive         domain.RevisionArchive
	Index           domain.RevisionIndex
	RevisionService domain.RevisionService
}

// NewContainer creates a new dependency injection container from the
// environment.
func NewContainer() (*Container, error) {
	return NewContainerWithConfig(NewConfig())
}

func NewContainerWithConfig(config domain.Config) (*Container, error) {
	appLogger := logger.NewLogger(config.GetLogLevel())

	files, err := storage.NewLocalStore(config.GetUploadPath())
	if err != nil {
		return nil, err
	}

	spellChecker, err := spelling.NewChecker(config.GetSpellingDictionaryPath())
	if err != nil {
		return nil, fmt.Errorf("load spelling dictionary: %w", err)
	}

	aligner, err := align.New(config.GetAlignmentStrategy())
	if err != nil {
		return nil, err
	}
	if config.GetAlignmentStrategy() == align.StrategyLCS {
		appLogger.Warn("LCS word alignment enabled; insertions and deletions no longer shift later words")
	}

	var grammarChecker domain.GrammarChecker = grammar.NewRuleChecker()
	if url := config.GetGrammarAPIURL(); url != "" {
		grammarChecker = grammar.NewRemoteChecker(url, config.GetGrammarLanguage(), config.GetExternalTimeout())
		appLogger.Info("Using remote grammar checker", "url", url)
	}

	var fallback *layout.OCRFallback
	if config.IsOCREnabled() {
		fallback = layout.NewOCRFallback(
			layout.NewFitzRenderer(),
			layout.NewTesseractRecognizer(strings.Split(config.GetOCRLanguage(), "+")...),
			config.GetOCRDPI(),
			config.GetExternalTimeout(),
		)
	}

	sessions := session.NewStore(
		session.WithCapacity(config.GetSessionCapacity()),
		session.WithTTL(config.GetSessionTTL()),
		session.WithEvictHandler(func(s *session.Session) {
			if err := files.Remove(s.ID); err != nil {
				appLogger.Warn("Failed to remove session files", "session_id", s.ID, "error", err.Error())
				return
			}
			appLogger.Debug("Session evicted", "session_id", s.ID)
		}),
	)

	archive, index := newArchive(config, appLogger)

	c := &Container{
		Config:    config,
		Logger:    appLogger,
		Files:     files,
		Sessions:  sessions,
		Extractor: layout.NewPDFExtractor(fallback, appLogger),
		Spelling:  spellChecker,
		Grammar:   grammarChecker,
		Aligner:   aligner,
		Patcher:   patch.NewPatcher(appLogger),
		Annotator: annotate.NewPDFAnnotator(appLogger),
		Archive:   archive,
		Index:     index,
	}

	deps := service.RevisionDeps{
		Store:           sessions,
		Files:           files,
		Extractor:       c.Extractor,
		Spelling:        c.Spelling,
		Grammar:         c.Grammar,
		Aligner:         c.Aligner,
		Patcher:         c.Patcher,
		Annotator:       c.Annotator,
		Archive:         c.Archive,
		Logger:          appLogger,
		MaxFileSize:     config.GetMaxFileSize(),
		ExternalTimeout: config.GetExternalTimeout(),
	}
	c.RevisionService = service.NewRevisionService(deps)
	return c, nil
}

// newArchive returns nils when Supabase is not configured or unreachable.
func newArchive(config domain.Config, appLogger domain.Logger) (domain.RevisionArchive, domain.RevisionIndex) {
	client := supabase.NewClient(config, appLogger)
	if !client.Enabled() {
		return nil, nil
	}
	if err := client.Initialize(); err != nil {
		appLogger.Warn("Revision archive disabled", "error", err.Error())
		return nil, nil
	}
	index := repository.NewSupabaseRevisionIndex(client.Tables(), appLogger)
	archive := repository.NewSupabaseArchive(client.Storage(), index, config.GetArchiveBucket(), appLogger)
	return archive, index
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
