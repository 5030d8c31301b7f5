// Package corpus flattens page layouts into the plain text shown to users.
package corpus

import (
	"strings"

	"pdf-revision-engine/internal/domain"
)

// Words splits text into maximal non-whitespace runs.
func Words(text string) []string {
	return strings.Fields(text)
}

// PageWords returns the word sequence of a page in block, line, span order.
func PageWords(page *domain.PageLayout) []string {
	var words []string
	page.EachSpan(func(s *domain.Span) {
		words = append(words, Words(s.Text)...)
	})
	return words
}

// PageText joins a page's words with single spaces. Original inter-word
// whitespace is not preserved.
func PageText(page *domain.PageLayout) string {
	return strings.Join(PageWords(page), " ")
}

// Build returns the display text of every page, in page order.
func Build(doc *domain.DocumentLayout) []string {
	texts := make([]string, len(doc.Pages))
	for i := range doc.Pages {
		texts[i] = PageText(&doc.Pages[i])
	}
	return texts
}

// Normalize collapses whitespace the same way PageText does.
func Normalize(text string) string {
	return strings.Join(Words(text), " ")
}
