// Package patch renders document revisions with replaced words drawn over
// their original spans.
package patch

import (
	"strings"

	"pdf-revision-engine/internal/corpus"
	"pdf-revision-engine/internal/domain"
)

// SpanEdit is the replacement text for one span of a page.
type SpanEdit struct {
	Block, Line, Span int
	Text              string
	ChangedWords      int
}

// PagePlan lists the spans of one page that need a redraw.
type PagePlan struct {
	Page         int
	Edits        []SpanEdit
	ChangedWords int
}

// Plan derives span edits from a page-wide word mapping. Positions refer to
// the page's word sequence; each span owns the contiguous slice of that
// sequence given by the words in its own text. A replacement whose Original
// does not match the word at its position is ignored, and an empty Word
// drops the original word.
func Plan(page *domain.PageLayout, mapping []domain.Replacement) PagePlan {
	plan := PagePlan{Page: page.Index}

	byPos := make(map[int]domain.Replacement, len(mapping))
	for _, r := range mapping {
		if !r.IsNoop() {
			byPos[r.Position] = r
		}
	}
	if len(byPos) == 0 {
		return plan
	}

	cursor := 0
	for b := range page.Blocks {
		for l := range page.Blocks[b].Lines {
			for s, span := range page.Blocks[b].Lines[l].Spans {
				words := corpus.Words(span.Text)
				out := make([]string, 0, len(words))
				changed := 0
				for j, w := range words {
					r, ok := byPos[cursor+j]
					if !ok || r.Original != w {
						out = append(out, w)
						continue
					}
					changed++
					if r.Word != "" {
						out = append(out, r.Word)
					}
				}
				cursor += len(words)

				if changed > 0 {
					plan.Edits = append(plan.Edits, SpanEdit{
						Block:        b,
						Line:         l,
						Span:         s,
						Text:         strings.Join(out, " "),
						ChangedWords: changed,
					})
					plan.ChangedWords += changed
				}
			}
		}
	}
	return plan
}

// Apply writes the planned text into page. Glyph boxes of edited spans are
// cleared; the renderer re-measures them.
func (p PagePlan) Apply(page *domain.PageLayout) {
	for _, e := range p.Edits {
		span := &page.Blocks[e.Block].Lines[e.Line].Spans[e.Span]
		span.Text = e.Text
		span.Glyphs = nil
	}
}
