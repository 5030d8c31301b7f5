package spelling

import (
	"strings"
	"unicode"

	"pdf-revision-engine/internal/domain"
)

// FindErrors checks every word of text and maps each misspelled word, as it
// appears in the text, to its suggestions. Numbers, punctuation-only tokens
// and all-caps tokens (acronyms, proper nouns) are skipped. Words with no
// suggestion are left out.
func FindErrors(checker domain.SpellChecker, text string) map[string][]string {
	errs := make(map[string][]string)
	for _, word := range strings.Fields(text) {
		if _, done := errs[word]; done || skip(word) {
			continue
		}
		if suggestions := checker.Suggest(word); len(suggestions) > 0 {
			errs[word] = suggestions
		}
	}
	return errs
}

func skip(word string) bool {
	return isDigits(word) || !hasWordChar(word) || isUpper(word)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func hasWordChar(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return true
		}
	}
	return false
}

// isUpper reports whether s has at least one cased letter and no lowercase.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
