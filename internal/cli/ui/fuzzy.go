package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance offered as a suggestion.
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the number of suggestions returned.
	DefaultMaxSuggestions = 3
)

// Suggest returns up to DefaultMaxSuggestions candidates within
// DefaultMaxDistance edits of target, closest first. Matching ignores case
// and a leading namespace separator, so "\app\widget" suggests "App\Widget".
// Ties keep candidate order.
func Suggest(target string, candidates []string) []string {
	type match struct {
		value    string
		distance int
	}

	folded := fold(target)
	var matches []match
	for _, c := range candidates {
		d := LevenshteinDistance(folded, fold(c))
		if d > 0 && d <= DefaultMaxDistance {
			matches = append(matches, match{value: c, distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(matches) && i < DefaultMaxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, `\`))
}

// LevenshteinDistance is the number of single-rune insertions, deletions or
// substitutions needed to turn a into b.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// two rows are enough
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
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
