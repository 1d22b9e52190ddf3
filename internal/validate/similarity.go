package validate

import (
	"strings"

	"github.com/samarquis/ScottWisper-sub011/internal/compat"
)

// Score computes the normalized edit-distance similarity between an
// expected and an actual text, in [0, 1] with 1.0 an exact match. It
// is a pure function of its inputs: scoring the same pair twice yields
// the identical result.
func Score(expected, actual string) float64 {
	if expected == actual {
		return 1.0
	}

	e := []rune(expected)
	a := []rune(actual)
	longest := max(len(e), len(a))
	if longest == 0 {
		return 1.0
	}

	dist := levenshtein(e, a)
	return 1.0 - float64(dist)/float64(longest)
}

// levenshtein is the rune-level edit distance with a two-row DP table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j-1], min(prev[j], curr[j-1]))
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// smart punctuation produced by word processors, mapped back to the
// plain characters that were injected.
var smartQuoteReplacer = strings.NewReplacer(
	"“", `"`, // left double
	"”", `"`, // right double
	"‘", "'", // left single
	"’", "'", // right single
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
)

// ApplyLimitations normalizes text for a profile's known limitations.
// Each limitation names a lossy transform the application performs;
// applying the matching normalizer to both expected and actual text
// means a divergence explained by the limitation scores as a match,
// and nothing else does. Unknown limitation IDs are ignored.
func ApplyLimitations(text string, limitations []string) string {
	for _, l := range limitations {
		switch l {
		case compat.LimitSmartQuotes:
			text = smartQuoteReplacer.Replace(text)
		case compat.LimitCRLFNewlines:
			text = strings.ReplaceAll(text, "\r\n", "\n")
		case compat.LimitTrailingWhitespace:
			text = stripTrailingWhitespace(text)
		case compat.LimitNoSurrogatePairs:
			text = stripAstralRunes(text)
		}
	}
	return text
}

// stripTrailingWhitespace removes spaces and tabs at the end of every
// line plus trailing newlines at the end of the text.
func stripTrailingWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

// stripAstralRunes drops characters outside the Basic Multilingual
// Plane, which targets without surrogate-pair support swallow.
func stripAstralRunes(text string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return -1
		}
		return r
	}, text)
}
