package align

import "pdf-revision-engine/internal/domain"

const defaultMaxCells = 4_000_000

// LCS anchors words shared by both sequences on a longest common subsequence
// and pairs the differing runs between anchors positionally. Original words
// with no counterpart in their run are mapped to "" and erased, which the
// positional strategy never does.
//
// When the differing middle of the page exceeds MaxCells table cells the
// middle falls back to positional pairing.
type LCS struct {
	MaxCells int
}

func (a LCS) Align(original, edited []string) []domain.Replacement {
	if len(original) == 0 {
		return nil
	}

	// Common prefix and suffix never need the table.
	pre := 0
	for pre < len(original) && pre < len(edited) && original[pre] == edited[pre] {
		pre++
	}
	suf := 0
	for suf < len(original)-pre && suf < len(edited)-pre &&
		original[len(original)-1-suf] == edited[len(edited)-1-suf] {
		suf++
	}

	out := make([]domain.Replacement, 0, len(original))
	for i := 0; i < pre; i++ {
		out = append(out, domain.Replacement{Position: i, Original: original[i], Word: original[i]})
	}

	midOrig := original[pre : len(original)-suf]
	midEdit := edited[pre : len(edited)-suf]

	limit := a.MaxCells
	if limit <= 0 {
		limit = defaultMaxCells
	}
	if len(midOrig)*len(midEdit) > limit {
		out = append(out, positional(midOrig, midEdit, pre)...)
	} else {
		out = append(out, alignRuns(midOrig, midEdit, pre)...)
	}

	for i := len(original) - suf; i < len(original); i++ {
		out = append(out, domain.Replacement{Position: i, Original: original[i], Word: original[i]})
	}
	return out
}

// alignRuns walks the LCS table and emits one replacement per original word.
func alignRuns(orig, edit []string, offset int) []domain.Replacement {
	n, m := len(orig), len(edit)
	// table[i][j] is the LCS length of orig[i:] and edit[j:].
	table := make([][]int32, n+1)
	for i := range table {
		table[i] = make([]int32, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if orig[i] == edit[j] {
				table[i][j] = table[i+1][j+1] + 1
			} else {
				table[i][j] = max(table[i+1][j], table[i][j+1])
			}
		}
	}

	out := make([]domain.Replacement, 0, n)
	var runOrig, runEdit []int
	flush := func() {
		for k, oi := range runOrig {
			word := ""
			if k < len(runEdit) {
				word = edit[runEdit[k]]
			}
			out = append(out, domain.Replacement{Position: offset + oi, Original: orig[oi], Word: word})
		}
		runOrig, runEdit = runOrig[:0], runEdit[:0]
	}

	i, j := 0, 0
	for i < n && j < m {
		switch {
		case orig[i] == edit[j]:
			flush()
			out = append(out, domain.Replacement{Position: offset + i, Original: orig[i], Word: orig[i]})
			i++
			j++
		case table[i+1][j] >= table[i][j+1]:
			runOrig = append(runOrig, i)
			i++
		default:
			runEdit = append(runEdit, j)
			j++
		}
	}
	for ; i < n; i++ {
		runOrig = append(runOrig, i)
	}
	for ; j < m; j++ {
		runEdit = append(runEdit, j)
	}
	flush()
	return out
}
