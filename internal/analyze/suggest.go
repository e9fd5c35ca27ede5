// Package analyze ranks registered command names by similarity to a name
// that failed to resolve.
package analyze

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Suggestion pairs a known command name with its similarity score (0-1, higher is better).
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

const (
	// DefaultThreshold is the minimum score Suggest returns.
	DefaultThreshold = 0.5
	// DefaultTopN caps the number of results from Suggest.
	DefaultTopN = 5
)

// Weights of the shared prefix and suffix on top of the edit-distance score.
// Typed command names usually go wrong at the end, so the prefix counts more.
const (
	prefixWeight = 0.1
	suffixWeight = 0.05
)

// Suggest ranks known against name with the default threshold and limit.
func Suggest(name string, known []string) []Suggestion {
	return SuggestN(name, known, DefaultTopN, DefaultThreshold)
}

// SuggestN returns up to topN names from known scoring at least threshold
// against name, best first. topN <= 0 means no limit. Names that normalize
// to the same words are reported once, under the spelling seen first, and
// equal scores keep the order of known.
func SuggestN(name string, known []string, topN int, threshold float64) []Suggestion {
	if name == "" || len(known) == 0 {
		return nil
	}

	target := normalize(name)
	seen := make(map[string]bool, len(known))
	var results []Suggestion
	for _, k := range known {
		norm := normalize(k)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		if score := similarity(target, norm); score >= threshold {
			results = append(results, Suggestion{Name: k, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	return results
}

// Names returns the names of suggestions, in rank order.
func Names(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Name
	}
	return out
}

// similarity scores two normalized names in [0, 1]: one minus the
// Levenshtein distance over the longer length, plus small bonuses for a
// shared prefix and suffix.
func similarity(a, b string) float64 {
	switch {
	case a == b:
		return 1.0
	case a == "" || b == "":
		return 0.0
	}

	longest := float64(max(len(a), len(b)))
	score := 1.0 - float64(levenshtein.ComputeDistance(a, b))/longest
	score += prefixWeight * float64(commonPrefixLen(a, b)) / longest
	score += suffixWeight * float64(commonSuffixLen(a, b)) / longest
	return min(score, 1.0)
}

// normalize lowercases s and splits it into space-separated words at
// hyphens, underscores and camelCase boundaries, so that "cherry_pick",
// "cherryPick" and "cherry-pick" compare equal. An acronym run ends before
// its last capital when a lowercase letter follows ("HTTPServe").
func normalize(s string) string {
	runes := []rune(s)
	var b strings.Builder
	word := false // inside a word

	for i, r := range runes {
		if r == '_' || r == '-' {
			word = false
			continue
		}
		if word && unicode.IsUpper(r) && wordBreak(runes, i) {
			word = false
		}
		if !word && b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
		word = true
	}
	return b.String()
}

// wordBreak reports whether the capital at runes[i] starts a new word.
func wordBreak(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func commonSuffixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 1; i <= n; i++ {
		if a[len(a)-i] != b[len(b)-i] {
			return i - 1
		}
	}
	return n
}
