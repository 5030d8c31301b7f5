// Package align maps a page's original word sequence onto an edited one.
package align

import (
	"fmt"
	"strings"

	"pdf-revision-engine/internal/domain"
)

const (
	StrategyPositional = "positional"
	StrategyLCS        = "lcs"
)

// New returns the aligner registered under name. An empty name selects the
// positional strategy.
func New(name string) (domain.Aligner, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyPositional:
		return Positional{}, nil
	case StrategyLCS:
		return LCS{MaxCells: defaultMaxCells}, nil
	default:
		return nil, fmt.Errorf("unknown alignment strategy %q", name)
	}
}

// Positional maps index i of the original onto index i of the edited words.
// Edited words past the end of the original are dropped; original positions
// past the end of the edited words stay unmapped.
type Positional struct{}

func (Positional) Align(original, edited []string) []domain.Replacement {
	return positional(original, edited, 0)
}

// positional pairs original[i] with edited[i]; offset is added to every
// reported position.
func positional(original, edited []string, offset int) []domain.Replacement {
	n := min(len(original), len(edited))
	out := make([]domain.Replacement, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Replacement{
			Position: offset + i,
			Original: original[i],
			Word:     edited[i],
		})
	}
	return out
}

// Changes keeps only the replacements that alter the page.
func Changes(mapping []domain.Replacement) []domain.Replacement {
	var out []domain.Replacement
	for _, r := range mapping {
		if !r.IsNoop() {
			out = append(out, r)
		}
	}
	return out
}
