package annotate

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf16"

	"pdf-revision-engine/internal/domain"
	"pdf-revision-engine/internal/storage"
	apperrors "pdf-revision-engine/pkg/errors"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	noteSize    = 18.0
	noteAuthor  = "Reviewer"
	dateLayout  = "20060102150405Z"
	highlightCA = 0.4
)

// PDFAnnotator applies comments as /Highlight and /Text annotations.
type PDFAnnotator struct {
	logger domain.Logger
	now    func() time.Time
}

func NewPDFAnnotator(logger domain.Logger) *PDFAnnotator {
	return &PDFAnnotator{logger: logger, now: time.Now}
}

// Apply locates every comment on its page of req.Layout and writes the
// annotated copy of req.DocumentPath to req.OutputPath. A comment with no
// match, or on a page outside the layout, counts zero matches and adds
// nothing. An output already produced from the same document and comments is
// left as it is.
func (a *PDFAnnotator) Apply(ctx context.Context, req domain.AnnotateRequest) (*domain.AnnotateResult, error) {
	if req.Layout == nil {
		return nil, apperrors.NewInternalError("annotate requires a layout", nil)
	}

	data, err := os.ReadFile(req.DocumentPath)
	if err != nil {
		return nil, apperrors.NewSerializationError("read document", err)
	}
	pdfCtx, err := api.ReadContextFile(req.DocumentPath)
	if err != nil {
		return nil, apperrors.NewSerializationError("read document", err)
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, apperrors.NewSerializationError("count pages", err)
	}

	var applied strings.Builder
	result := &domain.AnnotateResult{Matches: make([]int, len(req.Comments))}
	for i, c := range req.Comments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Page < 0 || c.Page >= len(req.Layout.Pages) || c.Page >= pdfCtx.PageCount {
			continue
		}
		page := &req.Layout.Pages[c.Page]
		matches := Locate(page, c.TargetText)
		result.Matches[i] = len(matches)
		if len(matches) == 0 {
			continue
		}

		fmt.Fprintf(&applied, "%d %q %q %d\n", c.Page, c.TargetText, c.Note, c.CreatedAt.UTC().Unix())
		annots := make(types.Array, 0, 2*len(matches))
		for _, m := range matches {
			for _, r := range m.Rects {
				fmt.Fprintf(&applied, "%g %g %g %g\n", r.X0, r.Y0, r.X1, r.Y1)
			}
			for _, d := range a.annotationDicts(page.Height, m, c) {
				ref, err := pdfCtx.IndRefForNewObject(d)
				if err != nil {
					return nil, apperrors.NewSerializationError("add annotation", err)
				}
				annots = append(annots, *ref)
			}
		}
		if err := appendAnnots(pdfCtx, c.Page+1, annots); err != nil {
			return nil, err
		}
		result.Annotations += len(annots)
	}

	stamp := storage.Stamp(data, []byte(applied.String()))
	if storage.StampOf(req.OutputPath) == stamp {
		a.logger.Debug("Annotations unchanged", "output", req.OutputPath)
		return result, nil
	}
	if err := setKeywords(pdfCtx, stamp); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.WriteContext(pdfCtx, &buf); err != nil {
		return nil, apperrors.NewSerializationError("serialize annotations", err)
	}
	if err := storage.WriteFileAtomic(req.OutputPath, buf.Bytes()); err != nil {
		return nil, err
	}

	a.logger.Info("Annotations written",
		"output", req.OutputPath,
		"comments", len(req.Comments),
		"annotations", result.Annotations)
	return result, nil
}

// setKeywords records stamp in the document information dictionary, creating
// one when the document has none.
func setKeywords(pdfCtx *model.Context, stamp string) error {
	if pdfCtx.Info == nil {
		d := types.NewDict()
		d.InsertString("Keywords", stamp)
		ref, err := pdfCtx.IndRefForNewObject(d)
		if err != nil {
			return apperrors.NewSerializationError("add document info", err)
		}
		pdfCtx.Info = ref
		return nil
	}
	d, err := pdfCtx.DereferenceDict(*pdfCtx.Info)
	if err != nil || d == nil {
		return apperrors.NewSerializationError("read document info", err)
	}
	d["Keywords"] = types.StringLiteral(stamp)
	return nil
}

// appendAnnots adds refs to the /Annots array of a page (1-based).
func appendAnnots(pdfCtx *model.Context, pageNr int, refs types.Array) error {
	pageDict, _, _, err := pdfCtx.PageDict(pageNr, false)
	if err != nil {
		return apperrors.NewSerializationError(fmt.Sprintf("read page %d", pageNr), err)
	}
	if pageDict == nil {
		return apperrors.NewSerializationError(fmt.Sprintf("page %d not found", pageNr), nil)
	}

	var existing types.Array
	if obj, ok := pageDict.Find("Annots"); ok {
		existing, err = pdfCtx.DereferenceArray(obj)
		if err != nil {
			return apperrors.NewSerializationError("read page annotations", err)
		}
	}
	pageDict["Annots"] = append(append(types.Array{}, existing...), refs...)
	return nil
}

// annotationDicts builds the highlight and its note for one match. Layout
// coordinates are top-left based and are flipped into PDF user space.
func (a *PDFAnnotator) annotationDicts(pageHeight float64, m Match, c domain.Comment) []types.Dict {
	if pageHeight <= 0 {
		pageHeight = 792
	}
	flip := func(y float64) float64 { return pageHeight - y }

	var quads types.Array
	var bounds domain.Rect
	for _, r := range m.Rects {
		bounds = bounds.Union(r)
		quads = append(quads,
			types.Float(r.X0), types.Float(flip(r.Y0)),
			types.Float(r.X1), types.Float(flip(r.Y0)),
			types.Float(r.X0), types.Float(flip(r.Y1)),
			types.Float(r.X1), types.Float(flip(r.Y1)),
		)
	}
	created := c.CreatedAt
	if created.IsZero() {
		created = a.now()
	}
	modified := types.StringLiteral("D:" + created.UTC().Format(dateLayout))
	contents := encodeText(c.Note)

	highlight := types.Dict{
		"Type":       types.Name("Annot"),
		"Subtype":    types.Name("Highlight"),
		"Rect":       rectArray(bounds, flip),
		"QuadPoints": quads,
		"C":          types.Array{types.Float(1), types.Float(1), types.Float(0)},
		"CA":         types.Float(highlightCA),
		"F":          types.Integer(4),
		"T":          encodeText(noteAuthor),
		"Contents":   contents,
		"M":          modified,
	}

	x, y := m.TopLeft()
	note := types.Dict{
		"Type":     types.Name("Annot"),
		"Subtype":  types.Name("Text"),
		"Rect":     rectArray(domain.Rect{X0: x, Y0: y - noteSize, X1: x + noteSize, Y1: y}, flip),
		"Name":     types.Name("Comment"),
		"C":        types.Array{types.Float(1), types.Float(0.85), types.Float(0)},
		"F":        types.Integer(4),
		"T":        encodeText(noteAuthor),
		"Contents": contents,
		"Open":     types.Boolean(false),
		"M":        modified,
	}
	return []types.Dict{highlight, note}
}

func rectArray(r domain.Rect, flip func(float64) float64) types.Array {
	return types.Array{
		types.Float(r.X0), types.Float(flip(r.Y1)),
		types.Float(r.X1), types.Float(flip(r.Y0)),
	}
}

// encodeText returns a PDF text string: a literal for printable ASCII,
// UTF-16BE with a byte order mark otherwise.
func encodeText(s string) types.Object {
	ascii := true
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			ascii = false
			break
		}
	}
	if ascii {
		r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		return types.StringLiteral(r.Replace(s))
	}

	units := utf16.Encode([]rune(s))
	buf := make([]byte, 2, 2+2*len(units))
	buf[0], buf[1] = 0xFE, 0xFF
	for _, u := range units {
		buf = append(buf, byte(u>>8), byte(u))
	}
	return types.HexLiteral(strings.ToUpper(hex.EncodeToString(buf)))
}
