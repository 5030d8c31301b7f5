package layout

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pdf-revision-engine/internal/corpus"
	"pdf-revision-engine/internal/domain"
	"pdf-revision-engine/internal/testutil"
)

type fakeRenderer struct {
	calls int
	err   error
}

func (f *fakeRenderer) RenderPage(ctx context.Context, path string, page int, dpi float64) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png"), nil
}

type fakeRecognizer struct {
	lines []domain.RecognizedLine
	err   error
}

func (f *fakeRecognizer) Recognize(ctx context.Context, image []byte) ([]domain.RecognizedLine, error) {
	return f.lines, f.err
}

func TestExtract_NativeText(t *testing.T) {
	path := testutil.SimplePDF(t, t.TempDir(), "Helo wrld")
	renderer := &fakeRenderer{}
	fallback := NewOCRFallback(renderer, &fakeRecognizer{}, 72, 0)

	doc, err := NewPDFExtractor(fallback, testutil.NewLogger()).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	page := doc.Pages[0]
	if page.Source != domain.LayoutSourceText {
		t.Fatalf("expected text source, got %s", page.Source)
	}
	if page.Width != 612 || page.Height != 792 {
		t.Fatalf("unexpected page size %vx%v", page.Width, page.Height)
	}
	if got := corpus.PageText(&page); got != "Helo wrld" {
		t.Fatalf("unexpected page text %q", got)
	}
	if len(corpus.PageWords(&page)) != len(corpus.Words(corpus.PageText(&page))) {
		t.Fatal("layout word count differs from flattened text")
	}
	if renderer.calls != 0 {
		t.Fatal("OCR should not run for pages with a text layer")
	}
}

func TestExtract_BlankPageUsesOCR(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "scan.pdf", [][]testutil.TextLine{{}})
	recognizer := &fakeRecognizer{lines: []domain.RecognizedLine{
		{Text: "Scanned  line", Box: domain.Rect{X0: 144, Y0: 144, X1: 432, Y1: 168}},
		{Text: "   "},
	}}
	fallback := NewOCRFallback(&fakeRenderer{}, recognizer, 144, 0)

	doc, err := NewPDFExtractor(fallback, testutil.NewLogger()).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	page := doc.Pages[0]
	if page.Source != domain.LayoutSourceOCR {
		t.Fatalf("expected OCR source, got %s", page.Source)
	}
	if got := corpus.PageText(&page); got != "Scanned line" {
		t.Fatalf("unexpected OCR text %q", got)
	}

	span := page.Blocks[0].Lines[0].Spans[0]
	if !span.Synthetic {
		t.Fatal("OCR spans must be marked synthetic")
	}
	// 144 dpi halves pixel coordinates.
	want := domain.Rect{X0: 72, Y0: 72, X1: 216, Y1: 84}
	if span.BBox != want {
		t.Fatalf("bbox = %+v, want %+v", span.BBox, want)
	}
}

func TestExtract_OCRFailureLeavesPageEmpty(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "scan.pdf", [][]testutil.TextLine{{}})
	fallback := NewOCRFallback(&fakeRenderer{err: errors.New("mupdf missing")}, &fakeRecognizer{}, 200, 0)
	logger := testutil.NewLogger()

	doc, err := NewPDFExtractor(fallback, logger).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("OCR failure must not fail extraction: %v", err)
	}
	if doc.Pages[0].Source != domain.LayoutSourceEmpty || len(doc.Pages[0].Blocks) != 0 {
		t.Fatalf("expected empty page, got %+v", doc.Pages[0])
	}
	if len(logger.Messages) == 0 {
		t.Fatal("expected the failure to be logged")
	}
}

func TestExtract_NoFallback(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "scan.pdf", [][]testutil.TextLine{{}, {{Text: "two", X: 72, Y: 72}}})

	doc, err := NewPDFExtractor(nil, testutil.NewLogger()).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Source != domain.LayoutSourceEmpty {
		t.Fatalf("expected empty first page, got %s", doc.Pages[0].Source)
	}
	if corpus.PageText(&doc.Pages[1]) != "two" {
		t.Fatalf("unexpected second page text %q", corpus.PageText(&doc.Pages[1]))
	}
}

func TestExtract_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPDFExtractor(nil, testutil.NewLogger()).Extract(context.Background(), path); err == nil {
		t.Fatal("expected error for non-PDF input")
	}
}

func TestSyntheticSpan_EmptyBox(t *testing.T) {
	span := syntheticSpan("text", domain.Rect{}, 612, 792)
	if !span.BBox.IsEmpty() || len(span.Glyphs) != 0 {
		t.Fatalf("expected no geometry, got %+v", span)
	}
	if span.Size == 0 {
		t.Fatal("expected a default size")
	}
}
