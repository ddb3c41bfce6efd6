package errz

import (
	"sort"
	"strings"
)

// MaxSuggestions is the maximum number of names SuggestSimilar returns.
const MaxSuggestions = 3

// SuggestSimilar returns the candidates closest to target by edit distance,
// ignoring case. Short targets tolerate fewer edits.
func SuggestSimilar(target string, candidates []string) []string {
	if target == "" {
		return nil
	}
	target = strings.ToLower(target)
	threshold := 3
	if len(target) <= 3 {
		threshold = 1
	} else if len(target) <= 5 {
		threshold = 2
	}

	type suggestion struct {
		value    string
		distance int
	}
	var found []suggestion
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		if candidate == "" || lower == target {
			continue
		}
		if dist := levenshtein(target, lower); dist <= threshold {
			found = append(found, suggestion{candidate, dist})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].distance != found[j].distance {
			return found[i].distance < found[j].distance
		}
		return found[i].value < found[j].value
	})
	if len(found) > MaxSuggestions {
		found = found[:MaxSuggestions]
	}
	result := make([]string, len(found))
	for i, s := range found {
		result[i] = s.value
	}
	return result
}

// DidYouMean returns a hint such as " (did you mean ROTATE?)" naming the
// candidates closest to target, or "" when none are close.
func DidYouMean(target string, candidates []string) string {
	suggestions := SuggestSimilar(target, candidates)
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return " (did you mean " + suggestions[0] + "?)"
	default:
		return " (did you mean one of " + strings.Join(suggestions, ", ") + "?)"
	}
}

// levenshtein computes the edit distance between a and b using two rows.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) > len(br) {
		ar, br = br, ar
	}
	if len(ar) == 0 {
		return len(br)
	}
	prev := make([]int, len(ar)+1)
	curr := make([]int, len(ar)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(br); j++ {
		curr[0] = j
		for i := 1; i <= len(ar); i++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ar)]
}
