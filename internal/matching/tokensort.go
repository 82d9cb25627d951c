package matching

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Normalize lowercases, replaces punctuation with spaces and collapses
// whitespace, so "Will BTC close above $60K?" and "will btc close above
// 60k" compare equal.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSortKey sorts the words of an already-normalized string so word
// order does not affect similarity.
func tokenSortKey(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// TokenSortRatio scores two normalized strings in [0, 100]. Tokens are
// sorted before comparison, then scored by normalized Levenshtein
// similarity.
func TokenSortRatio(a, b string) float64 {
	sa := tokenSortKey(a)
	sb := tokenSortKey(b)
	if sa == sb {
		return 100
	}

	la := len([]rune(sa))
	lb := len([]rune(sb))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 100
	}

	dist := levenshtein.ComputeDistance(sa, sb)
	return (1 - float64(dist)/float64(maxLen)) * 100
}
