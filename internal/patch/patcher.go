package patch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"pdf-revision-engine/internal/domain"
	"pdf-revision-engine/internal/storage"
	apperrors "pdf-revision-engine/pkg/errors"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
)

const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// Patcher rebuilds a document from its source pages and redraws edited spans
// on top of them.
type Patcher struct {
	logger domain.Logger
}

func NewPatcher(logger domain.Logger) *Patcher {
	return &Patcher{logger: logger}
}

// Patch renders SourcePath with every mapping applied and writes the result
// to OutputPath. The output only replaces OutputPath once fully written, and
// is left untouched when it was already rendered from the same source and
// edits.
func (p *Patcher) Patch(ctx context.Context, req domain.PatchRequest) (*domain.PatchResult, error) {
	if req.Baseline == nil {
		return nil, apperrors.NewInternalError("patch requires a baseline layout", nil)
	}

	data, err := os.ReadFile(req.SourcePath)
	if err != nil {
		return nil, apperrors.NewSerializationError("read source document", err)
	}
	if !bytes.Contains(data[:min(len(data), 1024)], []byte("%PDF-")) {
		return nil, apperrors.NewSerializationError("read source document", domain.ErrUnreadablePDF)
	}

	live := req.Baseline.Clone()
	plans := make([]PagePlan, len(live.Pages))
	result := &domain.PatchResult{Layout: live}
	for i := range live.Pages {
		plans[i] = Plan(&live.Pages[i], req.Mappings[i])
		plans[i].Apply(&live.Pages[i])
		result.ChangedSpans += len(plans[i].Edits)
		result.ChangedWords += plans[i].ChangedWords
	}

	stamp := revisionStamp(data, live, plans, req)
	out, err := render(ctx, data, live, plans, req, stamp)
	if err != nil {
		return nil, err
	}
	if storage.StampOf(req.OutputPath) == stamp {
		p.logger.Debug("Revision unchanged", "output", req.OutputPath)
		return result, nil
	}
	if err := storage.WriteFileAtomic(req.OutputPath, out); err != nil {
		return nil, err
	}

	p.logger.Info("Revision written",
		"output", req.OutputPath,
		"spans", result.ChangedSpans,
		"words", result.ChangedWords)
	return result, nil
}

// render imports every source page as a template and draws the edited spans.
// The importer panics on malformed input; that surfaces as an error.
func render(ctx context.Context, data []byte, live *domain.DocumentLayout, plans []PagePlan, req domain.PatchRequest, stamp string) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewSerializationError("import source pages", fmt.Errorf("%v", r))
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetCatalogSort(true)
	if !req.ModTime.IsZero() {
		pdf.SetCreationDate(req.ModTime)
		pdf.SetModificationDate(req.ModTime)
	}
	pdf.SetKeywords(stamp, false)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(data))

	for i := range live.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := &live.Pages[i]
		w, h := page.Width, page.Height
		if w <= 0 || h <= 0 {
			w, h = defaultPageWidth, defaultPageHeight
		}

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		tpl := importer.ImportPageFromStream(pdf, &rs, i+1, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, w, h)

		for _, e := range plans[i].Edits {
			drawSpan(pdf, tr, &page.Blocks[e.Block].Lines[e.Line].Spans[e.Span])
		}
		if !pdf.Ok() {
			return nil, apperrors.NewSerializationError(fmt.Sprintf("render page %d", i), pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.NewSerializationError("serialize revision", err)
	}
	return buf.Bytes(), nil
}

// revisionStamp digests everything render draws: the source bytes, the page
// boxes and every edited span.
func revisionStamp(data []byte, live *domain.DocumentLayout, plans []PagePlan, req domain.PatchRequest) string {
	var b strings.Builder
	if !req.ModTime.IsZero() {
		fmt.Fprintf(&b, "mod %d\n", req.ModTime.UTC().Unix())
	}
	for i, plan := range plans {
		page := &live.Pages[i]
		fmt.Fprintf(&b, "page %d %g %g\n", i, page.Width, page.Height)
		for _, e := range plan.Edits {
			s := &page.Blocks[e.Block].Lines[e.Line].Spans[e.Span]
			fmt.Fprintf(&b, "%d %d %d %q %q %g %g %g %g %g %g\n",
				e.Block, e.Line, e.Span, s.Text, s.Font, s.Size, s.Baseline,
				s.BBox.X0, s.BBox.Y0, s.BBox.X1, s.BBox.Y1)
		}
	}
	return storage.Stamp(data, []byte(b.String()))
}

// drawSpan erases the span box and draws its current text left-aligned on
// the original baseline. Glyph boxes are re-measured in the drawn font.
func drawSpan(pdf *fpdf.Fpdf, tr func(string) string, span *domain.Span) {
	box := span.BBox
	pdf.SetFillColor(255, 255, 255)
	pdf.Rect(box.X0, box.Y0, box.Width(), box.Height(), "F")

	if span.Text == "" {
		return
	}

	size := span.Size
	if size <= 0 {
		size = box.Height()
	}
	family, style := coreFont(span.Font)
	pdf.SetFont(family, style, size)
	// Extraction reports no fill colour, so replacements are drawn black.
	pdf.SetTextColor(0, 0, 0)

	baseline := span.Baseline
	if baseline == 0 {
		baseline = box.Y1 - size*0.2
	}
	pdf.Text(box.X0, baseline, tr(span.Text))

	span.Glyphs = span.Glyphs[:0]
	x := box.X0
	for _, r := range span.Text {
		w := pdf.GetStringWidth(tr(string(r)))
		if strings.TrimSpace(string(r)) != "" {
			span.Glyphs = append(span.Glyphs, domain.Glyph{
				Text: string(r),
				BBox: domain.Rect{X0: x, Y0: box.Y0, X1: x + w, Y1: box.Y1},
			})
		}
		x += w
	}
}
