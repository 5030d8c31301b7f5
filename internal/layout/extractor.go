// Package layout extracts the block/line/span tree of PDF pages.
package layout

import (
	"context"
	"fmt"
	"strings"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"

	"github.com/ledongthuc/pdf"
)

// US Letter, used when a page has no readable MediaBox.
var defaultBox = pageBox{LLX: 0, LLY: 0, URX: 612, URY: 792}

// PDFExtractor reads native text with ledongthuc/pdf and falls back to OCR
// for pages without a text layer.
type PDFExtractor struct {
	fallback   *OCRFallback
	logger     domain.Logger
	thresholds thresholds
}

// NewPDFExtractor creates an extractor. fallback may be nil to disable OCR.
func NewPDFExtractor(fallback *OCRFallback, logger domain.Logger) *PDFExtractor {
	return &PDFExtractor{
		fallback:   fallback,
		logger:     logger,
		thresholds: defaultThresholds,
	}
}

// Extract returns the layout of every page. Pages whose content cannot be
// read by either path come back empty.
func (e *PDFExtractor) Extract(ctx context.Context, path string) (*domain.DocumentLayout, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, apperrors.NewExtractionError("failed to open PDF", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	doc := &domain.DocumentLayout{Pages: make([]domain.PageLayout, 0, numPages)}

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, e.extractPage(ctx, path, reader.Page(i), i-1))
	}

	e.logger.Debug("Layout extracted", "path", path, "pages", numPages)
	return doc, nil
}

func (e *PDFExtractor) extractPage(ctx context.Context, path string, p pdf.Page, index int) domain.PageLayout {
	box := defaultBox
	if !p.V.IsNull() {
		box = mediaBox(p.V)
	}
	page := domain.PageLayout{
		Index:  index,
		Width:  box.width(),
		Height: box.height(),
		Source: domain.LayoutSourceEmpty,
	}

	glyphs, err := pageGlyphs(p)
	if err != nil {
		e.logger.Warn("Failed to read page text layer", "page", index, "error", err)
	}
	if hasText(glyphs) {
		page.Blocks = buildPage(glyphs, box, e.thresholds)
		page.Source = domain.LayoutSourceText
		return page
	}

	if e.fallback == nil {
		return page
	}

	blocks, err := e.fallback.Page(ctx, path, index, box.width(), box.height())
	if err != nil {
		// No text layer and no OCR: the page is simply empty.
		e.logger.Warn("OCR fallback failed; page left empty", "page", index, "error", err)
		return page
	}
	if len(blocks) > 0 {
		page.Blocks = blocks
		page.Source = domain.LayoutSourceOCR
	}
	return page
}

// pageGlyphs reads the glyph stream. ledongthuc/pdf panics on some malformed
// content streams; that is reported as an error.
func pageGlyphs(p pdf.Page) (glyphs []glyph, err error) {
	if p.V.IsNull() {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			glyphs, err = nil, fmt.Errorf("read page content: %v", r)
		}
	}()

	content := p.Content()
	glyphs = make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{
			S:    t.S,
			Font: t.Font,
			Size: t.FontSize,
			X:    t.X,
			Y:    t.Y,
			W:    t.W,
		})
	}
	return glyphs, nil
}

func hasText(glyphs []glyph) bool {
	for _, g := range glyphs {
		if strings.TrimSpace(g.S) != "" {
			return true
		}
	}
	return false
}

// mediaBox reads the page's MediaBox, walking up the page tree when the page
// inherits it.
func mediaBox(v pdf.Value) pageBox {
	for node, depth := v, 0; !node.IsNull() && depth < 32; node, depth = node.Key("Parent"), depth+1 {
		mb := node.Key("MediaBox")
		if mb.Len() != 4 {
			continue
		}
		box := pageBox{
			LLX: mb.Index(0).Float64(),
			LLY: mb.Index(1).Float64(),
			URX: mb.Index(2).Float64(),
			URY: mb.Index(3).Float64(),
		}
		if box.width() > 0 && box.height() > 0 {
			return box
		}
	}
	return defaultBox
}
