package patch

import "strings"

// coreFont maps an embedded font name onto one of the standard PDF fonts,
// returning the family and the fpdf style string.
func coreFont(name string) (family, style string) {
	lower := strings.ToLower(name)
	// Subset prefixes look like "ABCDEF+Times-Roman".
	if i := strings.IndexByte(lower, '+'); i >= 0 {
		lower = lower[i+1:]
	}

	family = "Helvetica"
	switch {
	case containsAny(lower, "courier", "mono", "consolas"):
		family = "Courier"
	case containsAny(lower, "times", "serif", "roman", "georgia", "garamond"):
		if !strings.Contains(lower, "sans") {
			family = "Times"
		}
	}

	if containsAny(lower, "bold", "black", "heavy", "semibold") {
		style += "B"
	}
	if containsAny(lower, "italic", "oblique") {
		style += "I"
	}
	return family, style
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
