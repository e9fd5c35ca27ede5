package analyze

import (
	"math"
	"testing"
)

func TestSuggestExactMatch(t *testing.T) {
	known := []string{"status", "stash", "build"}
	results := Suggest("status", known)
	if len(results) == 0 {
		t.Fatal("expected at least one suggestion for exact match")
	}
	if results[0].Name != "status" {
		t.Errorf("Name = %q, want %q", results[0].Name, "status")
	}
	if results[0].Score != 1.0 {
		t.Errorf("Score = %f, want 1.0", results[0].Score)
	}
}

func TestSuggestTypo(t *testing.T) {
	known := []string{"commit", "checkout", "cherry-pick", "status"}
	results := Suggest("comit", known)
	if len(results) == 0 {
		t.Fatal("expected suggestions for a typo")
	}
	if results[0].Name != "commit" {
		t.Errorf("top suggestion = %q, want %q", results[0].Name, "commit")
	}
}

func TestSuggestUnderscoreVsHyphen(t *testing.T) {
	results := Suggest("cherry_pick", []string{"cherry-pick"})
	if len(results) == 0 {
		t.Fatal("expected suggestion for underscore vs hyphen")
	}
	if results[0].Score != 1.0 {
		t.Errorf("Score = %f, want 1.0 for normalized match", results[0].Score)
	}
}

func TestSuggestCamelCase(t *testing.T) {
	results := Suggest("cherryPick", []string{"cherry-pick", "checkout"})
	if len(results) == 0 || results[0].Name != "cherry-pick" {
		t.Fatalf("got %+v, want cherry-pick first", results)
	}
}

func TestSuggestBelowThreshold(t *testing.T) {
	results := Suggest("x", []string{"completely-different-command"})
	if len(results) != 0 {
		t.Errorf("expected no suggestions for very dissimilar names, got %d", len(results))
	}
}

func TestSuggestEmpty(t *testing.T) {
	if results := Suggest("", []string{"build"}); results != nil {
		t.Errorf("expected nil for empty name, got %v", results)
	}
	if results := Suggest("build", nil); results != nil {
		t.Errorf("expected nil for nil known, got %v", results)
	}
}

func TestSuggestTopN(t *testing.T) {
	known := []string{"aa", "ab", "ac", "ad", "ae", "af", "ag"}
	results := SuggestN("aa", known, 3, 0.0)
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
	if results[0].Name != "aa" {
		t.Errorf("top = %q, want aa", results[0].Name)
	}
}

func TestSuggestSortedByScore(t *testing.T) {
	known := []string{"write", "reset", "rest", "revert", "remote"}
	results := SuggestN("reset", known, 0, 0)
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted: [%d].Score=%f > [%d].Score=%f",
				i, results[i].Score, i-1, results[i-1].Score)
		}
	}
}

func TestSuggestTiesKeepKnownOrder(t *testing.T) {
	results := SuggestN("ab", []string{"ax", "ay"}, 0, 0)
	if len(results) != 2 || results[0].Name != "ax" || results[1].Name != "ay" {
		t.Errorf("got %+v, want ax then ay", results)
	}
}

func TestNames(t *testing.T) {
	got := Names([]Suggestion{{Name: "a"}, {Name: "b"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Names = %v", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"cherry-pick", "cherry pick"},
		{"cherry_pick", "cherry pick"},
		{"cherryPick", "cherry pick"},
		{"CHERRY_PICK", "cherry pick"},
		{"build", "build"},
		{"", ""},
		{"HTTPServe", "http serve"},
		{"runAllTests", "run all tests"},
	}
	for _, tt := range tests {
		if got := normalize(tt.input); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"build", "build"},
		{"build", "deploy"},
		{"a", "z"},
		{"short", "muchlongerstring"},
		{"", "nonempty"},
	}
	for _, p := range pairs {
		score := similarity(p[0], p[1])
		if score < 0 || score > 1 {
			t.Errorf("similarity(%q, %q) = %f, out of [0,1]", p[0], p[1], score)
		}
	}
}

func TestSimilarityEmpty(t *testing.T) {
	if s := similarity("", "abc"); s != 0.0 {
		t.Errorf("similarity('', 'abc') = %f, want 0.0", s)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := "commit", "comit"
	if s1, s2 := similarity(a, b), similarity(b, a); math.Abs(s1-s2) > 1e-9 {
		t.Errorf("similarity not symmetric: %f vs %f", s1, s2)
	}
}

func TestPrefixBonus(t *testing.T) {
	results := SuggestN("deplo", []string{"deploy", "ploy-de"}, 0, 0)
	if len(results) != 2 || results[0].Name != "deploy" {
		t.Errorf("got %+v, want deploy ranked first", results)
	}
}

func TestCommonPrefixSuffixLen(t *testing.T) {
	if got := commonPrefixLen("abc", "abd"); got != 2 {
		t.Errorf("commonPrefixLen = %d, want 2", got)
	}
	if got := commonPrefixLen("ab", "abcdef"); got != 2 {
		t.Errorf("commonPrefixLen = %d, want 2", got)
	}
	if got := commonSuffixLen("abc", "xbc"); got != 2 {
		t.Errorf("commonSuffixLen = %d, want 2", got)
	}
	if got := commonSuffixLen("", "abc"); got != 0 {
		t.Errorf("commonSuffixLen = %d, want 0", got)
	}
}

func TestSuggestCollapsesSpellings(t *testing.T) {
	results := SuggestN("deplyo", []string{"deploy", "Deploy", "de_ploy", "status"}, 0, 0.5)
	if len(results) != 2 {
		t.Fatalf("got %+v, want deploy and de_ploy", results)
	}
	if results[0].Name != "deploy" {
		t.Errorf("top = %q, want first spelling deploy", results[0].Name)
	}
}
