// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"sync"
	"testing"

	"pdf-revision-engine/internal/domain"

	"codeberg.org/go-pdf/fpdf"
)

// TextLine is one line of fixture text drawn at (X, Y) from the top-left.
type TextLine struct {
	Text string
	X, Y float64
	Font string
	Size float64
}

// WritePDF writes a Letter-size PDF with one page per entry of pages and
// returns its path.
func WritePDF(t testing.TB, dir, name string, pages [][]TextLine) string {
	t.Helper()

	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(false)
	for _, lines := range pages {
		pdf.AddPage()
		for _, l := range lines {
			font, size := l.Font, l.Size
			if font == "" {
				font = "Helvetica"
			}
			if size == 0 {
				size = 12
			}
			pdf.SetFont(font, "", size)
			pdf.Text(l.X, l.Y, l.Text)
		}
	}

	path := filepath.Join(dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write fixture PDF: %v", err)
	}
	return path
}

// SimplePDF writes a one-page PDF holding text on a single line.
func SimplePDF(t testing.TB, dir, text string) string {
	t.Helper()
	return WritePDF(t, dir, "fixture.pdf", [][]TextLine{{{Text: text, X: 72, Y: 100}}})
}

// Logger records messages and discards fields.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, level+": "+msg)
}

func (l *Logger) Info(msg string, fields ...interface{})  { l.record("INFO", msg) }
func (l *Logger) Debug(msg string, fields ...interface{}) { l.record("DEBUG", msg) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.record("WARN", msg) }
func (l *Logger) Error(msg string, err error, fields ...interface{}) {
	if err != nil {
		msg += " - " + err.Error()
	}
	l.record("ERROR", msg)
}

var _ domain.Logger = (*Logger)(nil)

// Page builds a layout with one span per entry, each on its own line.
func Page(spans ...domain.Span) domain.PageLayout {
	page := domain.PageLayout{Width: 612, Height: 792, Source: domain.LayoutSourceText}
	block := domain.Block{}
	for _, s := range spans {
		block.Lines = append(block.Lines, domain.Line{BBox: s.BBox, Spans: []domain.Span{s}})
		block.BBox = block.BBox.Union(s.BBox)
	}
	page.Blocks = []domain.Block{block}
	return page
}
