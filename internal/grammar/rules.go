// Package grammar reports grammar findings for page text.
package grammar

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"pdf-revision-engine/internal/domain"
)

// RuleChecker runs a small set of local rules. It never fails.
type RuleChecker struct{}

func NewRuleChecker() *RuleChecker {
	return &RuleChecker{}
}

var (
	wordRe          = regexp.MustCompile(`[\p{L}\p{N}']+`)
	spaceRunRe      = regexp.MustCompile(`[^\S\n]{2,}`)
	spaceBeforePunc = regexp.MustCompile(`\s+[,.;:!?]`)
	articleRe       = regexp.MustCompile(`\b([Aa]n?)\s+([\p{L}]+)`)
	pronounRe       = regexp.MustCompile(`(^|[^\p{L}'])(i)([^\p{L}']|$)`)
)

// Words starting with a vowel letter but a consonant sound, and the reverse.
var (
	consonantSound = []string{"uni", "use", "usu", "eu", "one", "once", "ubiq", "utt"}
	vowelSound     = []string{"hour", "honest", "honor", "honour", "heir"}
)

func (c *RuleChecker) Check(ctx context.Context, text string) ([]domain.GrammarIssue, error) {
	var issues []domain.GrammarIssue
	add := func(byteOff, byteLen int, rule, msg string) {
		issues = append(issues, domain.GrammarIssue{
			Message: msg,
			Offset:  utf8.RuneCountInString(text[:byteOff]),
			Length:  utf8.RuneCountInString(text[byteOff : byteOff+byteLen]),
			Rule:    rule,
		})
	}

	words := wordRe.FindAllStringIndex(text, -1)
	for i := 1; i < len(words); i++ {
		prev := text[words[i-1][0]:words[i-1][1]]
		cur := text[words[i][0]:words[i][1]]
		between := text[words[i-1][1]:words[i][0]]
		if strings.EqualFold(prev, cur) && strings.TrimSpace(between) == "" && !isNumber(cur) {
			add(words[i-1][0], words[i][1]-words[i-1][0], "WORD_REPEAT",
				fmt.Sprintf("Possible typo: you repeated a word (%q).", prev+" "+cur))
		}
	}

	for _, start := range sentenceStarts(text) {
		r, size := utf8.DecodeRuneInString(text[start:])
		if unicode.IsLower(r) {
			add(start, size, "UPPERCASE_SENTENCE_START", "This sentence does not start with an uppercase letter.")
		}
	}

	for _, m := range spaceRunRe.FindAllStringIndex(text, -1) {
		add(m[0], m[1]-m[0], "WHITESPACE_REPEAT", "Possible typo: you repeated a whitespace.")
	}

	for _, m := range spaceBeforePunc.FindAllStringIndex(text, -1) {
		add(m[0], m[1]-m[0], "SPACE_BEFORE_PUNCTUATION", "Don't put a space before the punctuation mark.")
	}

	for _, m := range articleRe.FindAllStringSubmatchIndex(text, -1) {
		article := text[m[2]:m[3]]
		next := strings.ToLower(text[m[4]:m[5]])
		wantAn := startsWithVowelSound(next)
		switch {
		case strings.EqualFold(article, "a") && wantAn:
			add(m[2], m[5]-m[2], "EN_A_VS_AN", fmt.Sprintf("Use \"an\" instead of \"a\" before %q.", text[m[4]:m[5]]))
		case strings.EqualFold(article, "an") && !wantAn:
			add(m[2], m[5]-m[2], "EN_A_VS_AN", fmt.Sprintf("Use \"a\" instead of \"an\" before %q.", text[m[4]:m[5]]))
		}
	}

	for _, m := range pronounRe.FindAllStringSubmatchIndex(text, -1) {
		add(m[4], m[5]-m[4], "I_LOWERCASE", "The personal pronoun \"I\" should be uppercase.")
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Offset < issues[j].Offset
	})
	return issues, nil
}

// sentenceStarts returns byte offsets of the first letter of each sentence.
func sentenceStarts(text string) []int {
	var starts []int
	expect := true
	for i, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			expect = true
		case unicode.IsLetter(r):
			if expect {
				starts = append(starts, i)
			}
			expect = false
		case unicode.IsDigit(r):
			expect = false
		}
	}
	return starts
}

func startsWithVowelSound(word string) bool {
	for _, p := range vowelSound {
		if strings.HasPrefix(word, p) {
			return true
		}
	}
	for _, p := range consonantSound {
		if strings.HasPrefix(word, p) {
			return false
		}
	}
	return strings.ContainsRune("aeiou", rune(word[0]))
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
