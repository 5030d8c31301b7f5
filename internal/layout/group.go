package layout

import (
	"math"
	"sort"
	"strings"

	"pdf-revision-engine/internal/domain"
)

// glyph is one positioned character in PDF user space (origin bottom-left).
type glyph struct {
	S    string
	Font string
	Size float64
	X    float64
	Y    float64
	W    float64
}

// Typical ascent/descent as a share of the font size.
const (
	ascentRatio  = 0.8
	descentRatio = 0.2
)

// Grouping thresholds, as multiples of the font size.
type thresholds struct {
	RowTolerance float64 // max baseline drift inside one line
	WordGap      float64 // horizontal gap that implies a space
	SpanGap      float64 // horizontal gap that starts a new span
	BlockGap     float64 // vertical gap between lines that starts a new block
}

var defaultThresholds = thresholds{
	RowTolerance: 0.3,
	WordGap:      0.18,
	SpanGap:      2.5,
	BlockGap:     0.9,
}

// page geometry needed to flip coordinates to a top-left origin.
type pageBox struct {
	LLX, LLY, URX, URY float64
}

func (b pageBox) width() float64  { return b.URX - b.LLX }
func (b pageBox) height() float64 { return b.URY - b.LLY }

// buildPage groups glyphs into blocks, lines and spans.
func buildPage(glyphs []glyph, box pageBox, th thresholds) []domain.Block {
	rows := groupRows(glyphs, th)

	var lines []domain.Line
	for _, row := range rows {
		if spans := buildSpans(row, box, th); len(spans) > 0 {
			line := domain.Line{Spans: spans}
			for _, s := range spans {
				line.BBox = line.BBox.Union(s.BBox)
			}
			lines = append(lines, line)
		}
	}

	var blocks []domain.Block
	for i, line := range lines {
		if i == 0 || startsBlock(lines[i-1], line, th) {
			blocks = append(blocks, domain.Block{})
		}
		b := &blocks[len(blocks)-1]
		b.Lines = append(b.Lines, line)
		b.BBox = b.BBox.Union(line.BBox)
	}
	return blocks
}

// groupRows buckets glyphs by baseline, top row first, each row left to right.
func groupRows(glyphs []glyph, th thresholds) [][]glyph {
	type bucket struct {
		yMin, yMax float64
		glyphs     []glyph
	}
	var buckets []*bucket

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		tol := math.Max(1, g.Size*th.RowTolerance)
		var found *bucket
		for _, b := range buckets {
			if g.Y >= b.yMin-tol && g.Y <= b.yMax+tol {
				found = b
				break
			}
		}
		if found == nil {
			found = &bucket{yMin: g.Y, yMax: g.Y}
			buckets = append(buckets, found)
		}
		found.glyphs = append(found.glyphs, g)
		found.yMin = math.Min(found.yMin, g.Y)
		found.yMax = math.Max(found.yMax, g.Y)
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	rows := make([][]glyph, 0, len(buckets))
	for _, b := range buckets {
		sort.SliceStable(b.glyphs, func(i, j int) bool {
			return b.glyphs[i].X < b.glyphs[j].X
		})
		rows = append(rows, b.glyphs)
	}
	return rows
}

// buildSpans splits one row into runs sharing font and size.
func buildSpans(row []glyph, box pageBox, th thresholds) []domain.Span {
	var (
		spans   []domain.Span
		cur     *domain.Span
		text    strings.Builder
		lastEnd float64
		space   bool
	)

	flush := func() {
		if cur != nil {
			cur.Text = text.String()
			spans = append(spans, *cur)
		}
		cur = nil
		text.Reset()
	}

	for _, g := range row {
		if strings.TrimSpace(g.S) == "" {
			space = true
			continue
		}

		gb := glyphBox(g, box)
		gap := g.X - lastEnd

		if cur != nil && (g.Font != cur.Font || math.Abs(g.Size-cur.Size) > 0.5 || gap > g.Size*th.SpanGap) {
			flush()
		}

		if cur == nil {
			cur = &domain.Span{
				Font:     g.Font,
				Size:     g.Size,
				Baseline: box.URY - g.Y,
				BBox:     gb,
			}
		} else if space || gap > g.Size*th.WordGap {
			text.WriteByte(' ')
		}

		text.WriteString(g.S)
		cur.Glyphs = append(cur.Glyphs, domain.Glyph{Text: g.S, BBox: gb})
		cur.BBox = cur.BBox.Union(gb)
		lastEnd = g.X + glyphWidth(g)
		space = false
	}
	flush()
	return spans
}

func startsBlock(prev, next domain.Line, th thresholds) bool {
	gap := next.BBox.Y0 - prev.BBox.Y1
	return gap > prev.BBox.Height()*th.BlockGap
}

func glyphWidth(g glyph) float64 {
	if g.W > 0 {
		return g.W
	}
	return g.Size * 0.5 * float64(len([]rune(g.S)))
}

// glyphBox converts a glyph to a top-left-origin box.
func glyphBox(g glyph, box pageBox) domain.Rect {
	x0 := g.X - box.LLX
	top := box.URY - g.Y
	return domain.Rect{
		X0: x0,
		Y0: top - g.Size*ascentRatio,
		X1: x0 + glyphWidth(g),
		Y1: top + g.Size*descentRatio,
	}
}
