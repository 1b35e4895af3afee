package ui

import (
	"sort"
	"strings"
)

// MaxSuggestionDistance is the largest edit distance still offered as a
// "did you mean" candidate.
const MaxSuggestionDistance = 3

// Suggest returns up to limit candidates within MaxSuggestionDistance edits
// of target, closest first. Comparison ignores case; ties keep the order of
// candidates.
//
// Example:
//
//	Suggest("fenx", []string{"fenix", "focus_android", "firefox_desktop"}, 3)
//	// Returns: ["fenix"]
func Suggest(target string, candidates []string, limit int) []string {
	type match struct {
		name     string
		distance int
	}

	target = strings.ToLower(target)
	var matches []match
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true

		if d := EditDistance(target, strings.ToLower(candidate)); d <= MaxSuggestionDistance {
			matches = append(matches, match{candidate, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		result = append(result, matches[i].name)
	}
	return result
}

// EditDistance is the Levenshtein distance between a and b, counted in runes.
func EditDistance(a, b string) int {
	s, t := []rune(a), []rune(b)
	if len(s) == 0 {
		return len(t)
	}

	prev := make([]int, len(t)+1)
	cur := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s); i++ {
		cur[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(t)]
}
