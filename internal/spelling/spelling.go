// Package spelling suggests corrections for unknown words.
package spelling

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/sajari/fuzzy"
)

// MaxSuggestions is the number of candidates reported per word.
const MaxSuggestions = 3

//go:embed words.txt
var embeddedWords string

// Checker wraps a fuzzy model trained on a frequency-ordered word list.
type Checker struct {
	model  *fuzzy.Model
	counts map[string]int
	limit  int
}

// NewChecker builds a checker from the embedded English list plus the
// optional dictionary at extraPath (one word per line, optional count).
func NewChecker(extraPath string) (*Checker, error) {
	c := newChecker()
	if err := c.load(strings.NewReader(embeddedWords)); err != nil {
		return nil, fmt.Errorf("load embedded dictionary: %w", err)
	}
	if extraPath != "" {
		f, err := os.Open(extraPath)
		if err != nil {
			return nil, fmt.Errorf("open dictionary %s: %w", extraPath, err)
		}
		defer f.Close()
		if err := c.load(f); err != nil {
			return nil, fmt.Errorf("load dictionary %s: %w", extraPath, err)
		}
	}
	return c, nil
}

func newChecker() *Checker {
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	model.SetDepth(2)
	return &Checker{
		model:  model,
		counts: make(map[string]int),
		limit:  MaxSuggestions,
	}
}

// load reads "word [count]" lines. Without a count, earlier lines weigh more.
func (c *Checker) load(r io.Reader) error {
	var entries []string
	var counts []int

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		count := -1
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
				count = n
			}
		}
		entries = append(entries, strings.ToLower(fields[0]))
		counts = append(counts, count)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	for i, word := range entries {
		count := counts[i]
		if count < 0 {
			count = 1 + (len(entries)-i)/10
		}
		for n := 0; n < count; n++ {
			c.model.TrainWord(word)
		}
		c.counts[word] += count
	}
	return nil
}

// Known reports whether word is in the dictionary, ignoring case and
// surrounding punctuation.
func (c *Checker) Known(word string) bool {
	_, ok := c.counts[strings.ToLower(trimPunct(word))]
	return ok
}

// Suggest returns up to three candidates for an unknown word, closest first
// and then most frequent. Known words return nil. Candidates follow the
// capitalization of word.
func (c *Checker) Suggest(word string) []string {
	core := trimPunct(word)
	lower := strings.ToLower(core)
	if lower == "" || c.Known(core) {
		return nil
	}

	candidates := c.model.Suggestions(lower, true)
	dist := make(map[string]int, len(candidates))
	for _, cand := range candidates {
		dist[cand] = distance(lower, cand)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if dist[a] != dist[b] {
			return dist[a] < dist[b]
		}
		if c.counts[a] != c.counts[b] {
			return c.counts[a] > c.counts[b]
		}
		return a < b
	})

	out := make([]string, 0, c.limit)
	seen := make(map[string]bool)
	for _, cand := range candidates {
		if cand == "" || cand == lower || seen[cand] {
			continue
		}
		seen[cand] = true
		out = append(out, matchCase(core, cand))
		if len(out) == c.limit {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// matchCase applies the capitalization pattern of like to word.
func matchCase(like, word string) string {
	runes := []rune(like)
	if len(runes) == 0 || !unicode.IsUpper(runes[0]) {
		return word
	}
	w := []rune(word)
	w[0] = unicode.ToUpper(w[0])
	return string(w)
}

// distance is the optimal string alignment distance between a and b.
func distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev2 := make([]int, len(rb)+1)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				cur[j] = min(cur[j], prev2[j-2]+1)
			}
		}
		prev2, prev, cur = prev, cur, prev2
	}
	return prev[len(rb)]
}
