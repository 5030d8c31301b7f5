package domain

import "math"

// Rect is an axis-aligned box in page space: points, top-left origin, y down.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// IsEmpty reports whether r has no area.
func (r Rect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Union returns the smallest rect containing r and o. An empty side is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Glyph is one rendered character with its box.
type Glyph struct {
	Text string `json:"text"`
	BBox Rect   `json:"bbox"`
}

// Span is the atomic editable run of text sharing one font and size.
// BBox never changes once extracted; patching only replaces Text and Glyphs.
type Span struct {
	Text     string  `json:"text"`
	BBox     Rect    `json:"bbox"`
	Font     string  `json:"font"`
	Size     float64 `json:"size"`
	Baseline float64 `json:"baseline"`
	Glyphs   []Glyph `json:"-"`
	// Synthetic spans come from OCR; font and size are best-effort defaults.
	Synthetic bool `json:"synthetic,omitempty"`
}

type Line struct {
	Spans []Span `json:"spans"`
	BBox  Rect   `json:"bbox"`
}

type Block struct {
	Lines []Line `json:"lines"`
	BBox  Rect   `json:"bbox"`
}

// LayoutSource records where a page's text came from.
type LayoutSource string

const (
	LayoutSourceText  LayoutSource = "text"
	LayoutSourceOCR   LayoutSource = "ocr"
	LayoutSourceEmpty LayoutSource = "empty"
)

// PageLayout is the block/line/span tree of one page.
type PageLayout struct {
	Index  int          `json:"index"`
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Source LayoutSource `json:"source"`
	Blocks []Block      `json:"blocks"`
}

// EachSpan calls fn for every span in block, line, span order. fn may modify
// the span in place.
func (p *PageLayout) EachSpan(fn func(s *Span)) {
	for b := range p.Blocks {
		for l := range p.Blocks[b].Lines {
			for s := range p.Blocks[b].Lines[l].Spans {
				fn(&p.Blocks[b].Lines[l].Spans[s])
			}
		}
	}
}

// Clone returns a deep copy so a live layout can diverge from its baseline.
func (p PageLayout) Clone() PageLayout {
	out := p
	out.Blocks = make([]Block, len(p.Blocks))
	for b, block := range p.Blocks {
		out.Blocks[b] = Block{BBox: block.BBox, Lines: make([]Line, len(block.Lines))}
		for l, line := range block.Lines {
			out.Blocks[b].Lines[l] = Line{BBox: line.BBox, Spans: make([]Span, len(line.Spans))}
			for s, span := range line.Spans {
				span.Glyphs = append([]Glyph(nil), span.Glyphs...)
				out.Blocks[b].Lines[l].Spans[s] = span
			}
		}
	}
	return out
}

// DocumentLayout holds every page of a document in order.
type DocumentLayout struct {
	Pages []PageLayout `json:"pages"`
}

func (d *DocumentLayout) Clone() *DocumentLayout {
	out := &DocumentLayout{Pages: make([]PageLayout, len(d.Pages))}
	for i, p := range d.Pages {
		out.Pages[i] = p.Clone()
	}
	return out
}

// RecognizedLine is one line of OCR output with its box in image pixels.
type RecognizedLine struct {
	Text       string  `json:"text"`
	Box        Rect    `json:"box"`
	Confidence float64 `json:"confidence"`
}
