// Package annotate finds comment targets on a page and writes highlight and
// note annotations for them.
package annotate

import (
	"strings"

	"pdf-revision-engine/internal/corpus"
	"pdf-revision-engine/internal/domain"
)

// Match is one occurrence of a target on a page. Rects holds one box per
// line the occurrence spans, in reading order.
type Match struct {
	Start int
	Rects []domain.Rect
}

// TopLeft is the anchor point for the note of a match.
func (m Match) TopLeft() (x, y float64) {
	if len(m.Rects) == 0 {
		return 0, 0
	}
	return m.Rects[0].X0, m.Rects[0].Y0
}

type char struct {
	r    rune
	box  domain.Rect
	line int
}

// Locate returns every non-overlapping occurrence of target in the page's
// display text. Matching is exact and case-sensitive; whitespace in target
// collapses the same way the display text does.
func Locate(page *domain.PageLayout, target string) []Match {
	needle := []rune(corpus.Normalize(target))
	if len(needle) == 0 {
		return nil
	}
	chars := pageChars(page)

	var matches []Match
	for i := 0; i+len(needle) <= len(chars); {
		if !hasPrefix(chars[i:], needle) {
			i++
			continue
		}
		matches = append(matches, Match{Start: i, Rects: lineRects(chars[i : i+len(needle)])})
		i += len(needle)
	}
	return matches
}

func hasPrefix(chars []char, needle []rune) bool {
	for j, r := range needle {
		if chars[j].r != r {
			return false
		}
	}
	return true
}

// lineRects unions the boxes of visible characters per line.
func lineRects(chars []char) []domain.Rect {
	var (
		rects []domain.Rect
		cur   domain.Rect
		line  = -1
	)
	for _, c := range chars {
		if c.box.IsEmpty() {
			continue
		}
		if c.line != line && !cur.IsEmpty() {
			rects = append(rects, cur)
			cur = domain.Rect{}
		}
		line = c.line
		cur = cur.Union(c.box)
	}
	if !cur.IsEmpty() {
		rects = append(rects, cur)
	}
	return rects
}

// pageChars lays out the display text of a page as characters with boxes.
// Separating spaces carry an empty box.
func pageChars(page *domain.PageLayout) []char {
	var chars []char
	line := 0
	for b := range page.Blocks {
		for l := range page.Blocks[b].Lines {
			for _, span := range page.Blocks[b].Lines[l].Spans {
				boxes := runeBoxes(span)
				k := 0
				for _, w := range corpus.Words(span.Text) {
					if len(chars) > 0 {
						chars = append(chars, char{r: ' ', line: line})
					}
					for _, r := range w {
						var box domain.Rect
						if k < len(boxes) {
							box = boxes[k]
						}
						chars = append(chars, char{r: r, box: box, line: line})
						k++
					}
				}
			}
			line++
		}
	}
	return chars
}

// runeBoxes returns one box per non-space rune of span.Text. Glyph boxes are
// used when they cover the text exactly; otherwise the span box is divided
// evenly.
func runeBoxes(span domain.Span) []domain.Rect {
	visible := 0
	for _, r := range span.Text {
		if !isSpace(r) {
			visible++
		}
	}
	if visible == 0 {
		return nil
	}

	var fromGlyphs []domain.Rect
	for _, g := range span.Glyphs {
		runes := []rune(strings.TrimSpace(g.Text))
		if len(runes) == 0 {
			continue
		}
		step := g.BBox.Width() / float64(len(runes))
		for i := range runes {
			fromGlyphs = append(fromGlyphs, domain.Rect{
				X0: g.BBox.X0 + step*float64(i),
				Y0: g.BBox.Y0,
				X1: g.BBox.X0 + step*float64(i+1),
				Y1: g.BBox.Y1,
			})
		}
	}
	if len(fromGlyphs) == visible && !zeroWidth(fromGlyphs) {
		return fromGlyphs
	}

	total := len([]rune(span.Text))
	step := span.BBox.Width() / float64(total)
	out := make([]domain.Rect, 0, visible)
	i := 0
	for _, r := range span.Text {
		if !isSpace(r) {
			out = append(out, domain.Rect{
				X0: span.BBox.X0 + step*float64(i),
				Y0: span.BBox.Y0,
				X1: span.BBox.X0 + step*float64(i+1),
				Y1: span.BBox.Y1,
			})
		}
		i++
	}
	return out
}

func zeroWidth(rects []domain.Rect) bool {
	for _, r := range rects {
		if r.IsEmpty() {
			return true
		}
	}
	return false
}

func isSpace(r rune) bool {
	return strings.TrimSpace(string(r)) == ""
}
