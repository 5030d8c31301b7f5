package layout

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"pdf-revision-engine/internal/domain"
	apperrors "pdf-revision-engine/pkg/errors"

	"golang.org/x/sync/semaphore"
)

const pointsPerInch = 72.0

// OCRFallback renders a page and runs it through a text recognizer.
type OCRFallback struct {
	renderer   domain.PageRenderer
	recognizer domain.TextRecognizer
	dpi        float64
	timeout    time.Duration
}

func NewOCRFallback(renderer domain.PageRenderer, recognizer domain.TextRecognizer, dpi float64, timeout time.Duration) *OCRFallback {
	if dpi <= 0 {
		dpi = 200
	}
	return &OCRFallback{
		renderer:   renderer,
		recognizer: recognizer,
		dpi:        dpi,
		timeout:    timeout,
	}
}

// Page returns one block per recognized line, each holding a single synthetic
// span. Boxes are scaled from image pixels to page points.
func (o *OCRFallback) Page(ctx context.Context, path string, index int, width, height float64) ([]domain.Block, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	img, err := o.renderer.RenderPage(ctx, path, index, o.dpi)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("render page for OCR", err)
	}
	lines, err := o.recognizer.Recognize(ctx, img)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("recognize page text", err)
	}

	scale := pointsPerInch / o.dpi
	var blocks []domain.Block
	for _, l := range lines {
		text := strings.Join(strings.Fields(l.Text), " ")
		if text == "" {
			continue
		}
		span := syntheticSpan(text, scaleRect(l.Box, scale), width, height)
		blocks = append(blocks, domain.Block{
			BBox:  span.BBox,
			Lines: []domain.Line{{BBox: span.BBox, Spans: []domain.Span{span}}},
		})
	}
	return blocks, nil
}

// syntheticSpan builds a span with default styling. Glyph boxes split the line
// box evenly since OCR gives no per-character geometry.
func syntheticSpan(text string, bbox domain.Rect, pageW, pageH float64) domain.Span {
	span := domain.Span{Text: text, Synthetic: true, Size: 12}
	if bbox.IsEmpty() {
		return span
	}
	bbox.X1 = math.Min(bbox.X1, pageW)
	bbox.Y1 = math.Min(bbox.Y1, pageH)
	span.BBox = bbox
	span.Size = math.Max(6, bbox.Height()*0.75)
	span.Baseline = bbox.Y1 - bbox.Height()*descentRatio

	runes := []rune(text)
	step := bbox.Width() / float64(len(runes))
	for i, r := range runes {
		span.Glyphs = append(span.Glyphs, domain.Glyph{
			Text: string(r),
			BBox: domain.Rect{
				X0: bbox.X0 + step*float64(i),
				Y0: bbox.Y0,
				X1: bbox.X0 + step*float64(i+1),
				Y1: bbox.Y1,
			},
		})
	}
	return span
}

func scaleRect(r domain.Rect, s float64) domain.Rect {
	return domain.Rect{X0: r.X0 * s, Y0: r.Y0 * s, X1: r.X1 * s, Y1: r.Y1 * s}
}

// cgoCalls caps the fitz and tesseract calls in flight, including those
// abandoned after their context ended.
var cgoCalls = semaphore.NewWeighted(int64(runtime.NumCPU()))

// runWithContext runs fn in a goroutine and gives up when ctx is done. Work
// in cgo libraries cannot be interrupted, so fn keeps running to completion
// and holds its slot in cgoCalls until then.
func runWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	return runLimited(ctx, cgoCalls, fn)
}

func runLimited[T any](ctx context.Context, slots *semaphore.Weighted, fn func() (T, error)) (T, error) {
	var zero T
	if err := slots.Acquire(ctx, 1); err != nil {
		return zero, fmt.Errorf("gave up waiting for a free slot: %w", err)
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer slots.Release(1)
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		return zero, fmt.Errorf("gave up waiting: %w", ctx.Err())
	}
}
